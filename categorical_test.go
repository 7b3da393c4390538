package bbo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoricalOneHotRoundTrip(t *testing.T) {
	f, err := NewCategoricalInput("solvent", "water", "ethanol", "acetone")
	require.NoError(t, err)

	for i, category := range f.Categories() {
		cols, err := f.Encode(category, OneHot)
		require.NoError(t, err)
		require.Len(t, cols, 3)

		var sum float64
		for _, c := range cols {
			sum += c
		}
		assert.Equal(t, 1.0, sum, "exactly one hot column")
		assert.Equal(t, 1.0, cols[i])

		decoded, err := f.Decode(cols, OneHot)
		require.NoError(t, err)
		assert.Equal(t, category, decoded)
	}
}

func TestCategoricalOneHotDecodeTies(t *testing.T) {
	f, err := NewCategoricalInput("solvent", "water", "ethanol", "acetone")
	require.NoError(t, err)

	// Equal scores resolve to the first category in declaration order.
	decoded, err := f.Decode([]float64{0.5, 0.5, 0.1}, OneHot)
	require.NoError(t, err)
	assert.Equal(t, "water", decoded)
}

func TestCategoricalDummyEncoding(t *testing.T) {
	f, err := NewCategoricalInput("solvent", "water", "ethanol", "acetone")
	require.NoError(t, err)

	assert.Equal(t, 2, f.Columns(Dummy))
	assert.Equal(t, []string{"solvent_ethanol", "solvent_acetone"}, f.ColumnNames(Dummy))

	cols, err := f.Encode("water", Dummy)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, cols)

	cols, err = f.Encode("acetone", Dummy)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, cols)

	decoded, err := f.Decode([]float64{0.1, 0.2}, Dummy)
	require.NoError(t, err)
	assert.Equal(t, "water", decoded, "all-low dummy row is the dropped category")

	decoded, err = f.Decode([]float64{0.9, 0.2}, Dummy)
	require.NoError(t, err)
	assert.Equal(t, "ethanol", decoded)
}

func TestCategoricalOrdinalEncoding(t *testing.T) {
	f, err := NewCategoricalInput("solvent", "water", "ethanol", "acetone")
	require.NoError(t, err)

	cols, err := f.Encode("ethanol", Ordinal)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, cols)

	cases := []struct {
		rank float64
		want string
	}{
		{-0.4, "water"},
		{0.6, "ethanol"},
		{2.4, "acetone"},
		{7, "acetone"}, // clamped into range
	}
	for _, tc := range cases {
		decoded, err := f.Decode([]float64{tc.rank}, Ordinal)
		require.NoError(t, err)
		assert.Equal(t, tc.want, decoded, "rank %v", tc.rank)
	}
}

func TestCategoricalValidate(t *testing.T) {
	cases := []struct {
		name       string
		categories []string
		allowed    []bool
		err        error
	}{
		{"Valid", []string{"a", "b"}, []bool{true, false}, nil},
		{"Duplicate", []string{"a", "a"}, []bool{true, true}, ErrDuplicateCategory},
		{"Empty", nil, nil, ErrNoAllowedCategory},
		{"AllForbidden", []string{"a", "b"}, []bool{false, false}, ErrNoAllowedCategory},
		{"MaskMismatch", []string{"a", "b"}, []bool{true}, ErrDimensionMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCategoricalInputWithAllowed("f", tc.categories, tc.allowed)
			if tc.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.err)
			}
		})
	}
}

func TestCategoricalAllowedMask(t *testing.T) {
	f, err := NewCategoricalInputWithAllowed(
		"solvent",
		[]string{"water", "ethanol", "acetone"},
		[]bool{true, false, true},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"water", "acetone"}, f.AllowedCategories())
	assert.Equal(t, []string{"ethanol"}, f.ForbiddenCategories())

	_, err = f.ValidateValue("ethanol")
	assert.ErrorIs(t, err, ErrInvalidValue)

	got, err := f.ValidateValue("acetone")
	require.NoError(t, err)
	assert.Equal(t, "acetone", got)

	_, ok := f.FixedValue()
	assert.False(t, ok)
}

func TestCategoricalFixedValue(t *testing.T) {
	f, err := NewCategoricalInputWithAllowed(
		"solvent",
		[]string{"water", "ethanol"},
		[]bool{false, true},
	)
	require.NoError(t, err)

	v, ok := f.FixedValue()
	require.True(t, ok)
	assert.Equal(t, "ethanol", v)
}

func newTestDescriptorInput(t *testing.T, allowed []bool) CategoricalDescriptorInput {
	t.Helper()

	f, err := NewCategoricalDescriptorInput(
		"catalyst",
		[]string{"pd", "pt", "ni"},
		allowed,
		[]string{"activity", "cost"},
		[][]float64{
			{1.0, 10.0},
			{2.0, 30.0},
			{0.5, 2.0},
		},
	)
	require.NoError(t, err)

	return f
}

func TestDescriptorEncodeDecode(t *testing.T) {
	f := newTestDescriptorInput(t, nil)

	assert.Equal(t, Descriptor, f.DefaultEncoding())
	assert.Equal(t, 2, f.Columns(Descriptor))
	assert.Equal(t, []string{"catalyst_activity", "catalyst_cost"}, f.ColumnNames(Descriptor))

	cols, err := f.Encode("pt", Descriptor)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.0, 30.0}, cols)

	// Nearest allowed row wins the decode.
	decoded, err := f.Decode([]float64{0.9, 9.0}, Descriptor)
	require.NoError(t, err)
	assert.Equal(t, "pd", decoded)

	decoded, err = f.Decode([]float64{0.0, 0.0}, Descriptor)
	require.NoError(t, err)
	assert.Equal(t, "ni", decoded)
}

func TestDescriptorBoundsRespectAllowedMask(t *testing.T) {
	f := newTestDescriptorInput(t, []bool{true, false, true})

	lower, upper, err := f.TransformedBounds(Descriptor, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 2.0}, lower)
	assert.Equal(t, []float64{1.0, 10.0}, upper)

	// The forbidden pt row never decodes.
	decoded, err := f.Decode([]float64{2.0, 30.0}, Descriptor)
	require.NoError(t, err)
	assert.Equal(t, "pd", decoded)
}

func TestDescriptorShapeValidation(t *testing.T) {
	_, err := NewCategoricalDescriptorInput(
		"catalyst",
		[]string{"pd", "pt"},
		nil,
		[]string{"activity"},
		[][]float64{{1.0, 2.0}, {3.0, 4.0}},
	)
	assert.ErrorIs(t, err, ErrDescriptorShape)

	_, err = NewCategoricalDescriptorInput(
		"catalyst",
		[]string{"pd", "pt"},
		nil,
		nil,
		[][]float64{{1.0}, {2.0}},
	)
	assert.ErrorIs(t, err, ErrDescriptorShape)
}

func TestTaskInputDefaults(t *testing.T) {
	f, err := NewTaskInput("fidelity", "low", "high")
	require.NoError(t, err)

	assert.Equal(t, Ordinal, f.DefaultEncoding())
	assert.True(t, f.SupportsEncoding(Ordinal))
	assert.True(t, f.SupportsEncoding(OneHot))

	cols, err := f.Encode("high", Ordinal)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, cols)
}
