package scheduler

import (
	"errors"
	"testing"

	"github.com/alexanderramin/groundwork/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationFixture() []*domain.Task {
	return []*domain.Task{
		mk("1", day(3), 5),
		mk("1.1", day(3), 2),
		mk("1.2", day(5), 3, "1.1"),
		mk("2", day(10), 2),
		mk("3", day(12), 1),
	}
}

func TestValidatePredecessors_Valid(t *testing.T) {
	all := validationFixture()
	res := ValidatePredecessors(byID(all, "t3"), []string{"2", "1.2SS+1d"}, all)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestValidatePredecessors_ResolvesByID(t *testing.T) {
	all := validationFixture()
	res := ValidatePredecessors(byID(all, "t3"), []string{"t2"}, all)
	assert.True(t, res.Valid, "errors: %v", res.Errors)
}

func TestValidatePredecessors_SelfReference(t *testing.T) {
	all := validationFixture()
	res := ValidatePredecessors(byID(all, "t2"), []string{"2FF"}, all)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "own predecessor")
}

func TestValidatePredecessors_UnresolvedListedTogether(t *testing.T) {
	all := validationFixture()
	res := ValidatePredecessors(byID(all, "t2"), []string{"9", "1.1", "10SS"}, all)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "not found: 9, 10")
}

func TestValidatePredecessors_AncestorConflict(t *testing.T) {
	all := validationFixture()
	res := ValidatePredecessors(byID(all, "t1.1"), []string{"1"}, all)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "predecessor 1 is a parent of task 1.1")
}

func TestValidatePredecessors_DescendantConflict(t *testing.T) {
	all := validationFixture()
	res := ValidatePredecessors(byID(all, "t1"), []string{"1.2"}, all)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "subtask")
}

func TestValidatePredecessors_CycleReportsPath(t *testing.T) {
	// A(4) depends on B(5), B depends on C(6); C may not depend on A.
	all := []*domain.Task{
		mk("4", day(3), 1, "5"),
		mk("5", day(3), 1, "6"),
		mk("6", day(3), 1),
	}
	res := ValidatePredecessors(byID(all, "t6"), []string{"4"}, all)
	require.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "circular dependency: 6 → 4 → 5 → 6", res.Errors[0])
}

func TestValidatePredecessors_CycleThroughParent(t *testing.T) {
	// Parent 2 rolls up from 2.1, so 2.1 following 1 closes the loop.
	all := []*domain.Task{
		mk("1", day(3), 1, "2"),
		mk("2", day(3), 1),
		mk("2.1", day(3), 1),
	}
	res := ValidatePredecessors(byID(all, "t2.1"), []string{"1"}, all)
	require.False(t, res.Valid)
	assert.Equal(t, []string{"circular dependency: 2.1 → 1 → 2 → 2.1"}, res.Errors)

	all = []*domain.Task{
		mk("1", day(3), 1),
		mk("2", day(3), 1),
		mk("2.1", day(3), 1, "1"),
	}
	res = ValidatePredecessors(byID(all, "t1"), []string{"2"}, all)
	require.False(t, res.Valid)
	assert.Equal(t, []string{"circular dependency: 1 → 2 → 2.1 → 1"}, res.Errors)
}

func TestValidatePredecessors_DuplicateIsWarning(t *testing.T) {
	all := validationFixture()
	res := ValidatePredecessors(byID(all, "t3"), []string{"2", "2SS+1d"}, all)
	assert.True(t, res.Valid)
	assert.Equal(t, []string{"duplicate predecessor 2"}, res.Warnings)
}

func TestValidatePredecessors_Malformed(t *testing.T) {
	all := validationFixture()
	res := ValidatePredecessors(byID(all, "t3"), []string{"+3d"}, all)
	require.False(t, res.Valid)
	assert.Contains(t, res.Errors[0], "invalid predecessor")
}

func TestValidatePredecessors_DoesNotMutate(t *testing.T) {
	all := validationFixture()
	before := domain.CloneTasks(all)
	proposed := []string{" 2 ", "9"}
	ValidatePredecessors(byID(all, "t3"), proposed, all)
	assert.Equal(t, before, all)
	assert.Equal(t, []string{" 2 ", "9"}, proposed)
}

func TestValidateAll(t *testing.T) {
	all := []*domain.Task{
		mk("1", day(3), 1, "1"),
		mk("2", day(3), 1, "1"),
		mk("3", day(3), 1, "2", "2FF"),
	}
	reports := ValidateAll(all)
	require.Len(t, reports, 2)
	assert.Equal(t, "1", reports[0].Hierarchy)
	assert.False(t, reports[0].Result.Valid)
	assert.Equal(t, "3", reports[1].Hierarchy)
	assert.True(t, reports[1].Result.Valid)
	assert.NotEmpty(t, reports[1].Result.Warnings)
}

func TestValidationError_Message(t *testing.T) {
	var err error = &ValidationError{Hierarchy: "3", Result: ValidationResult{Errors: []string{"a", "b"}}}
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "invalid predecessors for task 3: a; b", err.Error())
}
