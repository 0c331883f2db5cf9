package dto

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomValidators(t *testing.T) {
	RegisterValidators()
	RegisterValidators() // 幂等

	half := "13:00"
	ok := CreateShiftRequest{StartTime: "22:00", EndTime: "06:00", HalfDayStartTime: &half, HalfDayEndTime: &half}
	assert.NoError(t, binding.Validator.ValidateStruct(&ok))

	bad := CreateShiftRequest{StartTime: "9am", EndTime: "18:00"}
	err := binding.Validator.ValidateStruct(&bad)
	require.Error(t, err)
	assert.Contains(t, FormatBindingError(err), "start_time 时间格式必须为 HH:MM")

	unknown := SubmitRequest{Type: "OVERTIME"}
	err = binding.Validator.ValidateStruct(&unknown)
	require.Error(t, err)
	assert.True(t, strings.Contains(FormatBindingError(err), "type 不是合法的申请类型"))

	claim := SubmitRequest{Type: "CLAIM"}
	assert.NoError(t, binding.Validator.ValidateStruct(&claim))
}
