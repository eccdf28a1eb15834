package rule

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	r, err := Decode([]byte(`{"kind":"nthDay","month":5,"byday":"1SU","offset":"-1SA","interval":2,"start_offset":-1}`))
	require.NoError(t, err)

	assert.Equal(t, NthDay{Month: time.May, ByDay: ByDay{Ordinal: 1, Weekday: time.Sunday}}, r.Anchor)
	assert.Equal(t, mo.Some(Offset{Sign: -1, Weekday: time.Saturday}), r.Offset)
	assert.Equal(t, 2, r.Interval)
	assert.Equal(t, mo.Some(-1), r.StartOffset)

	r, err = Decode([]byte(`{"kind":"lastDay","month":5,"weekday":"sa"}`))
	require.NoError(t, err)
	assert.Equal(t, LastDay{Month: time.May, Weekday: time.Saturday}, r.Anchor)

	r, err = Decode([]byte(`{"kind":"special","special":"easter","offset":"+1MO"}`))
	require.NoError(t, err)
	assert.Equal(t, Special{Key: "easter"}, r.Anchor)
	assert.Equal(t, mo.Some(Offset{Sign: 1, Weekday: time.Monday}), r.Offset)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"missing kind", `{"month":5}`, "kind"},
		{"unknown kind", `{"kind":"weekly"}`, "kind"},
		{"missing month", `{"kind":"nthDay","byday":"1SU"}`, "month"},
		{"missing byday", `{"kind":"nthDay","month":5}`, "byday"},
		{"byday too long", `{"kind":"nthDay","month":5,"byday":"-10SU"}`, "byday"},
		{"byday bad code", `{"kind":"nthDay","month":5,"byday":"1XX"}`, "byday"},
		{"byday bad ordinal", `{"kind":"nthDay","month":5,"byday":"ASU"}`, "byday"},
		{"weekday length", `{"kind":"lastDay","month":5,"weekday":"SAT"}`, "weekday"},
		{"offset length", `{"kind":"special","special":"easter","offset":"SA"}`, "offset"},
		{"offset sign", `{"kind":"special","special":"easter","offset":"-2SA"}`, "offset"},
		{"month range", `{"kind":"lastDay","month":14,"weekday":"SA"}`, "month"},
		{"start offset", `{"kind":"special","special":"easter","start_offset":-9}`, "start_offset"},
		{"malformed", `{"kind":`, ""},
		{"wrong type", `{"kind":"nthDay","month":"May"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRule)

			var re *Error
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.field, re.Field)
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	data, err := json.Marshal(span(before(nth(time.May, 1, time.Sunday), time.Saturday), -1))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"nthDay","month":5,"byday":"1SU","offset":"-1SA","interval":1,"start_offset":-1}`, string(data))

	data, err = json.Marshal(after(special("thanksgiving"), time.Friday))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"special","special":"thanksgiving","offset":"+1FR","interval":1}`, string(data))
}

func TestFields_InsideStruct(t *testing.T) {
	var payload struct {
		Name string `json:"name"`
		Rule Rule   `json:"rule"`
	}
	err := json.Unmarshal([]byte(`{"name":"Reunion","rule":{"kind":"lastDay","month":7,"weekday":"SU"}}`), &payload)
	require.NoError(t, err)
	assert.Equal(t, "Reunion", payload.Name)
	assert.Equal(t, LastDay{Month: time.July, Weekday: time.Sunday}, payload.Rule.Anchor)
}
