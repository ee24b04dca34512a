package console

import "regexp"

var (
	sectionCodeRe = regexp.MustCompile(`§.`)
	ansiRe        = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

func Strip(line string) string {
	line = ansiRe.ReplaceAllString(line, "")
	return sectionCodeRe.ReplaceAllString(line, "")
}
