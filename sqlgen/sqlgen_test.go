package sqlgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/go-mfginsight/core"
)

type fakeCompleter struct {
	prompt string
	out    string
	err    error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.out, f.err
}

func TestPatchILike(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "jam",
			in:   "SELECT * FROM manufacturing_events WHERE event_type = 'Jam'",
			want: "SELECT * FROM manufacturing_events WHERE event_type ILIKE 'Jam'",
		},
		{
			name: "no spaces",
			in:   "SELECT id FROM manufacturing_events WHERE event_type='overheat' AND city = 'Austin'",
			want: "SELECT id FROM manufacturing_events WHERE event_type ILIKE 'overheat' AND city = 'Austin'",
		},
		{
			name: "multiple",
			in:   "SELECT * FROM manufacturing_events WHERE event_type = 'Jam' OR event_type = 'Stop'",
			want: "SELECT * FROM manufacturing_events WHERE event_type ILIKE 'Jam' OR event_type ILIKE 'Stop'",
		},
		{
			name: "non alphabetic literal untouched",
			in:   "SELECT * FROM manufacturing_events WHERE event_type = 'Jam 2'",
			want: "SELECT * FROM manufacturing_events WHERE event_type = 'Jam 2'",
		},
		{
			name: "qualified column",
			in:   "SELECT * FROM manufacturing_events e WHERE e.event_type = 'Jam'",
			want: "SELECT * FROM manufacturing_events e WHERE e.event_type ILIKE 'Jam'",
		},
		{
			name: "longer identifier untouched",
			in:   "SELECT * FROM t WHERE prev_event_type = 'Jam'",
			want: "SELECT * FROM t WHERE prev_event_type = 'Jam'",
		},
		{
			name: "other column untouched",
			in:   "SELECT * FROM manufacturing_events WHERE machine_name = 'Press'",
			want: "SELECT * FROM manufacturing_events WHERE machine_name = 'Press'",
		},
		{
			name: "not equal untouched",
			in:   "SELECT * FROM manufacturing_events WHERE event_type != 'Jam'",
			want: "SELECT * FROM manufacturing_events WHERE event_type != 'Jam'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := PatchILike(tt.in)
			assert.Equal(t, tt.want, once)
			assert.Equal(t, once, PatchILike(once))
		})
	}
}

func TestPatchILikeOnlyTouchesPredicate(t *testing.T) {
	in := "SELECT city, COUNT(*) FROM manufacturing_events WHERE event_type = 'Jam' AND duration_minutes > 5 GROUP BY city"
	out := PatchILike(in)

	before := strings.Replace(in, "event_type = 'Jam'", "", 1)
	after := strings.Replace(out, "event_type ILIKE 'Jam'", "", 1)
	assert.Equal(t, before, after)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "SELECT 1", StripFences("```sql\nSELECT 1\n```"))
	assert.Equal(t, "SELECT 1", StripFences("```\nSELECT 1\n```"))
	assert.Equal(t, "SELECT 1", StripFences("  SELECT 1  "))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("  select * from manufacturing_events"))
	assert.NoError(t, Validate("SELECT 1"))

	for _, bad := range []string{"DELETE FROM manufacturing_events", "", "WITH x AS (SELECT 1) SELECT * FROM x", "Sure! SELECT 1"} {
		err := Validate(bad)
		require.Error(t, err, bad)
		assert.Equal(t, core.KindValidation, core.KindOf(err))
		assert.ErrorIs(t, err, core.ErrNotSelect)
	}
}

func TestSynthesizeQuery(t *testing.T) {
	f := &fakeCompleter{out: "```sql\nSELECT * FROM manufacturing_events WHERE event_type = 'Jam'\n```"}
	s := NewSynthesizer(f, nil)

	sql, err := s.SynthesizeQuery(context.Background(), "How many jams?")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM manufacturing_events WHERE event_type ILIKE 'Jam'", sql)
	assert.True(t, strings.HasPrefix(f.prompt, SystemPrompt+"\n\n"))
	assert.True(t, strings.HasSuffix(f.prompt, "How many jams?"))
}

func TestSynthesizeQueryErrors(t *testing.T) {
	s := NewSynthesizer(&fakeCompleter{err: errors.New("503")}, nil)
	_, err := s.SynthesizeQuery(context.Background(), "q")
	assert.Equal(t, core.KindGeneration, core.KindOf(err))

	s = NewSynthesizer(&fakeCompleter{out: "DROP TABLE manufacturing_events"}, nil)
	_, err = s.SynthesizeQuery(context.Background(), "q")
	assert.Equal(t, core.KindValidation, core.KindOf(err))
}
