package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutline/careerctx/pkg/types"
)

func TestPeriodWindow_ClosedPeriod(t *testing.T) {
	p := types.Period{
		Start: types.YearMonth{Year: 2020, Month: 3},
		End:   &types.YearMonth{Year: 2021, Month: 2},
	}

	start, end := p.Window()
	assert.Equal(t, time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC), start)
	require.NotNil(t, end)
	assert.Equal(t, time.Date(2021, 2, 28, 0, 0, 0, 0, time.UTC), *end)
}

func TestPeriodWindow_LeapFebruary(t *testing.T) {
	p := types.Period{
		Start: types.YearMonth{Year: 2020, Month: 1},
		End:   &types.YearMonth{Year: 2020, Month: 2},
	}

	_, end := p.Window()
	require.NotNil(t, end)
	assert.Equal(t, time.Date(2020, 2, 29, 0, 0, 0, 0, time.UTC), *end)
}

func TestPeriodWindow_OpenEnded(t *testing.T) {
	p := types.Period{Start: types.YearMonth{Year: 2022, Month: 7}}

	start, end := p.Window()
	assert.Equal(t, time.Date(2022, 7, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Nil(t, end)
}

func TestPeriodWindow_UnknownStartMonthIsJanuary(t *testing.T) {
	p := types.Period{Start: types.YearMonth{Year: 2019}}

	start, _ := p.Window()
	assert.Equal(t, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestYearMonthBefore(t *testing.T) {
	assert.True(t, types.YearMonth{Year: 2019, Month: 12}.Before(types.YearMonth{Year: 2020, Month: 1}))
	assert.True(t, types.YearMonth{Year: 2020, Month: 1}.Before(types.YearMonth{Year: 2020, Month: 2}))
	// Unknown month sorts as January.
	assert.False(t, types.YearMonth{Year: 2020}.Before(types.YearMonth{Year: 2020, Month: 1}))
	assert.True(t, types.YearMonth{Year: 2020}.Before(types.YearMonth{Year: 2020, Month: 2}))
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "acme corp", types.NormalizeLabel("  Acme Corp "))
	assert.Equal(t, "", types.NormalizeLabel("   "))
}

func TestSearchWindowContains(t *testing.T) {
	end := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	w := types.SearchWindow{
		StartDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   &end,
	}

	assert.True(t, w.Contains(time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(w.StartDate))
	assert.True(t, w.Contains(end))
	assert.False(t, w.Contains(time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)))

	open := types.SearchWindow{StartDate: w.StartDate}
	assert.True(t, open.Contains(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}
