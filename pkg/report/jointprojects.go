// pkg/report/jointprojects.go
package report

import (
	"github.com/foerderkatalog/pipeline/pkg/aggregate"
	"github.com/foerderkatalog/pipeline/pkg/model"
)

// JointProjects compares Verbundprojekte (multi-partner collaborations)
// against individually funded projects.
type JointProjects struct {
	Summary          JointSummary        `json:"summary"`
	TopJointProjects []JointProjectEntry `json:"top_joint_projects"`
}

type JointSummary struct {
	JointProjectCount      int     `json:"joint_project_count"`
	IndividualProjectCount int     `json:"individual_project_count"`
	JointFunding           float64 `json:"joint_funding"`
	IndividualFunding      float64 `json:"individual_funding"`
}

type JointProjectEntry struct {
	Name            string   `json:"name"`
	TotalFunding    float64  `json:"total_funding"`
	SubprojectCount int      `json:"subproject_count"`
	StatesInvolved  []string `json:"states_involved"`
}

const (
	topJointProjectCount = 30
	jointStateSample     = 5
)

func BuildJointProjects(set *model.RecordSet) *JointProjects {
	doc := &JointProjects{TopJointProjects: []JointProjectEntry{}}

	records := set.Records()
	for i := range records {
		if records[i].IsJoint() {
			doc.Summary.JointProjectCount++
			doc.Summary.JointFunding += records[i].FundingAmount
		} else {
			doc.Summary.IndividualProjectCount++
			doc.Summary.IndividualFunding += records[i].FundingAmount
		}
	}

	joint := aggregate.Filter(records, func(r *model.FundingRecord) bool {
		return r.IsJoint()
	})
	groups := aggregate.GroupBy(joint, func(r *model.FundingRecord) string {
		return r.JointProjectName
	}, aggregate.FundingAmount)
	states := aggregate.DistinctPerGroup(joint,
		func(r *model.FundingRecord) string { return r.JointProjectName },
		func(r *model.FundingRecord) string { return r.State },
		jointStateSample)

	for _, g := range aggregate.TopN(groups, topJointProjectCount, aggregate.BySum) {
		doc.TopJointProjects = append(doc.TopJointProjects, JointProjectEntry{
			Name:            g.Key,
			TotalFunding:    g.Sum,
			SubprojectCount: g.Count,
			StatesInvolved:  states[g.Key],
		})
	}
	return doc
}
