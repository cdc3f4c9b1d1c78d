package service

import (
	"strconv"
	"strings"
)

// ParseParticipants reads one participant per line, in seed order. Blank
// lines and surrounding whitespace are dropped.
func ParseParticipants(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// ParseLaneLabels accepts "A,B,C" or a count such as "4", which yields lanes
// labelled 1 to 4.
func ParseLaneLabels(text string) []string {
	text = strings.TrimSpace(text)
	if n, ok := parseCount(text); ok {
		labels := make([]string, n)
		for i := range labels {
			labels[i] = strconv.Itoa(i + 1)
		}
		return labels
	}

	var labels []string
	for _, part := range strings.Split(text, ",") {
		if label := strings.TrimSpace(part); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

func parseCount(text string) (int, bool) {
	n, err := strconv.Atoi(text)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
