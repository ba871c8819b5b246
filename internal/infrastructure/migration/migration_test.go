package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrationsAreIdempotent(t *testing.T) {
	names := map[string]bool{}
	for _, m := range Migrations() {
		assert.False(t, names[m.Name], "duplicate migration %s", m.Name)
		names[m.Name] = true
		assert.NotNil(t, m.Up)
	}
	for _, q := range []string{createResumes, createExportJobs, indexExportJobs} {
		assert.True(t, strings.Contains(q, "IF NOT EXISTS"))
	}
}
