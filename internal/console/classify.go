package console

import "strings"

type Category string

const (
	CategoryCommand Category = "COMMAND"
	CategoryError   Category = "ERROR"
	CategoryWarn    Category = "WARN"
	CategorySuccess Category = "SUCCESS"
	CategorySystem  Category = "SYSTEM"
	CategoryInfo    Category = "INFO"
)

var Categories = []Category{
	CategoryCommand,
	CategoryError,
	CategoryWarn,
	CategorySuccess,
	CategorySystem,
	CategoryInfo,
}

type rule struct {
	category Category
	needles  []string
}

// Evaluated in order, first hit wins. "WARNING" is covered by "WARN".
var rules = []rule{
	{CategoryError, []string{"ERROR", "SEVERE", "FATAL"}},
	{CategoryWarn, []string{"WARN"}},
	{CategorySuccess, []string{"DONE", "STARTED", "LISTENING"}},
	{CategorySystem, []string{"LOADING", "SAVING", "STOPPING"}},
}

// Classify tags a console line. Lines echoed from operator input start with '>'.
func Classify(line string) Category {
	upper := strings.ToUpper(line)
	if strings.HasPrefix(upper, ">") {
		return CategoryCommand
	}
	for _, r := range rules {
		for _, n := range r.needles {
			if strings.Contains(upper, n) {
				return r.category
			}
		}
	}
	return CategoryInfo
}

func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}
