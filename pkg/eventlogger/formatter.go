package eventlogger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

type CustomFormatter struct {
	Name string
}

func (f *CustomFormatter) Format(entry *log.Entry) ([]byte, error) {
	parts := []string{}
	parts = append(parts, entry.Time.UTC().Format(time.StampMilli))

	if f.Name != "" {
		parts = append(parts, f.Name)
	}

	extraFields := f.formatFields(entry.Data)
	if extraFields != "" {
		parts = append(parts, extraFields)
	}

	parts = append(parts, ":")
	parts = append(parts, fmt.Sprintf("%s\n", entry.Message))
	return []byte(strings.Join(parts, " ")), nil
}

func (f *CustomFormatter) formatFields(fields log.Fields) string {
	result := []string{}
	for key, value := range fields {
		result = append(result, fmt.Sprintf("%s=%v", key, value))
	}

	sort.Strings(result)
	return strings.Join(result, " ")
}
