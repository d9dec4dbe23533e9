package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallback_Deterministic(t *testing.T) {
	def := Fallback("press button")
	assert.Equal(t, "press button", def.Name)
	assert.Equal(t, "press button", def.Description)
	assert.Equal(t, KindStatement, def.Kind)
	assert.False(t, def.HasInput)
	assert.Equal(t, FallbackColor, def.Color)
	assert.Contains(t, def.Code, "press button")
	assert.Equal(t, "// press button\nconsole.log(\"press button executed\");", def.Code)
	assert.Equal(t, def, Fallback("press button"))
}

func TestFallback_TruncatesNameByRunes(t *testing.T) {
	long := "버튼을 누르면 배경색이 무지개처럼 바뀌게 해줘"
	def := Fallback(long)
	assert.Equal(t, FallbackNameRunes, len([]rune(def.Name)))
	assert.Equal(t, string([]rune(long)[:FallbackNameRunes]), def.Name)
	assert.Equal(t, long, def.Description)
}

func TestFallback_QuotesAreEscapedInLog(t *testing.T) {
	def := Fallback(`say "hi"`)
	assert.Equal(t, "// say \"hi\"\nconsole.log(\"say \\\"hi\\\" executed\");", def.Code)
}

func TestValidColor(t *testing.T) {
	for _, c := range []string{"#fff", "#5b67a5", "#ABCDEF"} {
		assert.True(t, ValidColor(c), c)
	}
	for _, c := range []string{"", "fff", "#ff", "#12345g", "red", "#5b67a5 "} {
		assert.False(t, ValidColor(c), c)
	}
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindValue, ParseKind(" value "))
	assert.Equal(t, KindStatement, ParseKind("loop"))
	assert.Equal(t, KindStatement, ParseKind(""))
	assert.True(t, KindBoolean.Expression())
	assert.False(t, KindOutput.Expression())
}
