package buildsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func parseDeps(t *testing.T, input string) (rules []string, deps []string, errors []string) {
	t.Helper()
	parseMakefileDeps([]byte(input), makefileDepsActions{
		onError:          func(message string, _ int) { errors = append(errors, message) },
		onRuleStart:      func(name string) { rules = append(rules, name) },
		onRuleDependency: func(name string) { deps = append(deps, name) },
	})
	return rules, deps, errors
}

func TestParseMakefileDepsBasic(t *testing.T) {
	rules, deps, errors := parseDeps(t, "main.o: main.c header.h\n")
	assert.Equal(t, []string{"main.o"}, rules)
	assert.Equal(t, []string{"main.c", "header.h"}, deps)
	assert.Empty(t, errors)
}

func TestParseMakefileDepsContinuation(t *testing.T) {
	_, deps, errors := parseDeps(t, "main.o: main.c \\\n  header.h \\\n  other.h\n")
	assert.Equal(t, []string{"main.c", "header.h", "other.h"}, deps)
	assert.Empty(t, errors)
}

func TestParseMakefileDepsEscapes(t *testing.T) {
	_, deps, errors := parseDeps(t, `out.o: a\ b.c money$$.h`)
	assert.Equal(t, []string{"a b.c", "money$.h"}, deps)
	assert.Empty(t, errors)
}

func TestParseMakefileDepsMultipleRules(t *testing.T) {
	rules, deps, errors := parseDeps(t, "a.o: a.c\nb.o: b.c b.h\n")
	assert.Equal(t, []string{"a.o", "b.o"}, rules)
	assert.Equal(t, []string{"a.c", "b.c", "b.h"}, deps)
	assert.Empty(t, errors)
}

func TestParseMakefileDepsMissingColon(t *testing.T) {
	_, _, errors := parseDeps(t, "main.o main.c\n")
	assert.NotEmpty(t, errors)
	assert.Contains(t, errors[0], "missing ':'")
}

func TestParseMakefileDepsEmpty(t *testing.T) {
	rules, deps, errors := parseDeps(t, "")
	assert.Empty(t, rules)
	assert.Empty(t, deps)
	assert.Empty(t, errors)
}
