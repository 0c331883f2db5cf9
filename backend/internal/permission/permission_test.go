package permission

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"staffhub/backend/internal/model"
)

func TestForConsultant(t *testing.T) {
	c := &model.Consultant{
		Role:        model.ConsultantRoleDefault,
		Permissions: pq.StringArray{"CAN_CREATE_PROJECTS", "isRoot", "CAN_READ_CANDIDATES"},
	}
	s := ForConsultant(c)
	assert.True(t, s.Has(CreateProjects))
	assert.True(t, s.Has(ReadCandidates))
	assert.False(t, s.Has(EditAllProjects))
	assert.False(t, s.IsRoot())
	assert.Equal(t, []Permission{CreateProjects, ReadCandidates}, s.List())
}

func TestRootGrantsEverything(t *testing.T) {
	s := ForConsultant(&model.Consultant{Role: model.ConsultantRoleRoot})
	for _, p := range All {
		assert.True(t, s.Has(p), string(p))
	}
	assert.Len(t, s.List(), len(All))
}

func TestNilConsultant(t *testing.T) {
	s := ForConsultant(nil)
	assert.False(t, s.Has(ReadAllProjects))
	assert.Empty(t, s.List())
}
