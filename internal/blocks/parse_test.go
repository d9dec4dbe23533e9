package blocks

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponse_ConformantIsIdentity(t *testing.T) {
	for _, k := range Kinds {
		t.Run(string(k), func(t *testing.T) {
			want := Definition{
				Name:        "greet",
				Description: "says hello",
				Kind:        k,
				Color:       "#A55B80",
				HasInput:    true,
				Code:        "alert('{{INPUT}}');",
			}
			raw, err := json.Marshal(want)
			require.NoError(t, err)

			got, defaulted, err := ParseResponse(string(raw))
			require.NoError(t, err)
			assert.Empty(t, defaulted)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("ParseResponse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseResponse_MalformedTypeDefaultsToStatement(t *testing.T) {
	for _, typ := range []string{`"loop"`, `null`, `42`, `""`, `["value"]`, `"Value"`} {
		raw := `{"name":"x","description":"y","type":` + typ + `,"color":"#fff","code":"f();"}`
		got, _, err := ParseResponse(raw)
		require.NoError(t, err, typ)
		assert.Equal(t, KindStatement, got.Kind, typ)
	}
}

func TestParseResponse_ExtractsGreedyObjectFromProse(t *testing.T) {
	raw := "Sure! Here is your block:\n```json\n" +
		`{"name":"beep","description":"plays a beep","type":"output","color":"#5ba55b","hasInput":false,"code":"console.log('beep')"}` +
		"\n```\nEnjoy."
	got, _, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "beep", got.Name)
	assert.Equal(t, KindOutput, got.Kind)
	assert.Equal(t, "console.log('beep')", got.Code)
}

func TestParseResponse_Failures(t *testing.T) {
	for _, raw := range []string{
		"",
		"no json here",
		"} backwards {",
		"{not json}",
		`{"name": "unterminated"`,
		"null",
	} {
		_, _, err := ParseResponse(raw)
		require.ErrorIs(t, err, ErrParseFailure, raw)
	}
}

func TestParseResponse_DefaultsEveryField(t *testing.T) {
	got, defaulted, err := ParseResponse(`{"name": 7, "color": "blue", "hasInput": "true", "code": "` + "```js\\n```" + `"}`)
	require.NoError(t, err)
	want := Definition{
		Name:        DefaultName,
		Description: DefaultDescription,
		Kind:        KindStatement,
		Color:       DefaultColor,
		HasInput:    false,
		Code:        DefaultCode,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	fields := make([]string, 0, len(defaulted))
	for _, d := range defaulted {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{"name", "description", "type", "color", "code"}, fields)
}

func TestParseResponse_HasInputStrictTrue(t *testing.T) {
	for raw, want := range map[string]bool{
		`true`:   true,
		`false`:  false,
		`"true"`: false,
		`1`:      false,
		`null`:   false,
	} {
		got, _, err := ParseResponse(`{"hasInput": ` + raw + `}`)
		require.NoError(t, err)
		assert.Equal(t, want, got.HasInput, raw)
	}
}

func TestParseResponse_Idempotent(t *testing.T) {
	inputs := []string{
		`{"name":"a","type":"value","code":"` + "```javascript\\n1 + 1\\n```" + `"}`,
		`{"description":"  ","hasInput":true,"code":"  x()  "}`,
		`{}`,
	}
	for _, raw := range inputs {
		first, _, err := ParseResponse(raw)
		require.NoError(t, err)
		encoded, err := json.Marshal(first)
		require.NoError(t, err)
		second, _, err := ParseResponse(string(encoded))
		require.NoError(t, err)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("second parse differs for %q (-first +second):\n%s", raw, diff)
		}
	}
}

func TestNormalizeCode_StripsFences(t *testing.T) {
	cases := map[string]string{
		"```javascript\nalert(1);\n```":         "alert(1);",
		"```js\nalert(1);\n```":                 "alert(1);",
		"```\nalert(1);\n```":                   "alert(1);",
		"a();\n```js\nb();\n```\n```\nc();```":  "a();\nb();\nc();",
		"``" + "```js" + "`x();":                "``js`x();",
		"   \n\t":                               DefaultCode,
		"```":                                   DefaultCode,
		"plain();":                              "plain();",
	}
	for in, want := range cases {
		got := NormalizeCode(in)
		assert.Equal(t, want, got, "input %q", in)
		assert.NotContains(t, got, "```", "input %q", in)
	}
}

func TestNormalizeCode_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"``````",
		"````js\n`",
		"```javascript```js```",
		"\n  ```js\nlet a = `template ${b}`;\n```  \n",
		strings.Repeat("`", 11),
	}
	for _, in := range inputs {
		once := NormalizeCode(in)
		assert.Equal(t, once, NormalizeCode(once), "input %q", in)
		assert.NotContains(t, once, "```", "input %q", in)
	}
}
