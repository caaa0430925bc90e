package project_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stagegate/internal/domain/project"
)

func TestMemberProgress_SumsApprovedOnly(t *testing.T) {
	m := project.Member{
		Email: "dev@example.com",
		Role:  project.RoleDeveloper,
		Tasks: []project.Task{
			{ID: "t1", Weight: 30, Status: project.TaskApproved},
			{ID: "t2", Weight: 20, Status: project.TaskSubmitted},
			{ID: "t3", Weight: 25, Status: project.TaskRejected},
			{ID: "t4", Weight: 10, Status: project.TaskApproved},
		},
	}

	require.Equal(t, 40, project.MemberProgress(m))
}

func TestMemberProgress_ClampsAt100(t *testing.T) {
	m := project.Member{
		Email: "dev@example.com",
		Role:  project.RoleDeveloper,
		Tasks: []project.Task{
			{ID: "t1", Weight: 60, Status: project.TaskApproved},
			{ID: "t2", Weight: 70, Status: project.TaskApproved},
		},
	}

	require.Equal(t, 100, project.MemberProgress(m))
}

func TestMemberProgress_NoTasks(t *testing.T) {
	m := project.Member{Email: "dev@example.com", Role: project.RoleDeveloper}
	require.Equal(t, 0, project.MemberProgress(m))
}

func TestProjectProgress_ExcludesOversightRoles(t *testing.T) {
	p := &project.Project{
		Members: []project.Member{
			{Email: "admin@example.com", Role: project.RoleAdmin, Tasks: []project.Task{
				{ID: "a1", Weight: 100, Status: project.TaskApproved},
			}},
			{Email: "lead@example.com", Role: project.RoleLead, Tasks: []project.Task{
				{ID: "l1", Weight: 100, Status: project.TaskApproved},
			}},
			{Email: "b@example.com", Role: project.RoleDeveloper, Tasks: []project.Task{
				{ID: "t1", Weight: 40, Status: project.TaskApproved},
			}},
			{Email: "c@example.com", Role: project.RoleDeveloper, Tasks: []project.Task{
				{ID: "t2", Weight: 60, Status: project.TaskUnsubmitted},
			}},
		},
	}

	// (40 + 0) / 2: admin and lead weights never count.
	require.InDelta(t, 20.0, project.ProjectProgress(p), 0.0001)
}

func TestProjectProgress_EmptyEligibleSet(t *testing.T) {
	p := &project.Project{
		Members: []project.Member{
			{Email: "admin@example.com", Role: project.RoleAdmin},
			{Email: "lead@example.com", Role: project.RoleLead},
		},
	}

	require.Zero(t, project.ProjectProgress(p))
}

func TestRecalculate_RefreshesDerivedFields(t *testing.T) {
	p := &project.Project{
		Members: []project.Member{
			{Email: "admin@example.com", Role: project.RoleAdmin},
			{Email: "b@example.com", Role: project.RoleDeveloper, Progress: 7, Tasks: []project.Task{
				{ID: "t1", Weight: 40, Status: project.TaskApproved},
			}},
			{Email: "c@example.com", Role: project.RoleDeveloper, Progress: 99, Tasks: []project.Task{
				{ID: "t2", Weight: 60, Status: project.TaskApproved},
			}},
		},
		Progress: 3,
	}

	project.Recalculate(p)

	require.Equal(t, 40, p.Members[1].Progress)
	require.Equal(t, 60, p.Members[2].Progress)
	require.InDelta(t, 50.0, p.Progress, 0.0001)
}
