package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-preview/internal/model"
	"resume-preview/internal/pagination"
	"resume-preview/internal/templates"
)

type countingMeasurer struct {
	mu       sync.Mutex
	height   float64
	acquired int
	err      error
}

func (m *countingMeasurer) Acquire(context.Context, pagination.ProbeSpec) (pagination.Probe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.acquired++
	return fixedProbe{m.height}, nil
}

func (m *countingMeasurer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired
}

type fixedProbe struct{ h float64 }

func (p fixedProbe) Total(_ context.Context, b []pagination.ContentBlock) (float64, error) {
	return p.h * float64(len(b)), nil
}
func (p fixedProbe) Measure(context.Context, pagination.ContentBlock) (float64, error) {
	return p.h, nil
}
func (fixedProbe) Release() error { return nil }

type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{m: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, k string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[k]
	return v, ok
}

func (c *mapCache) Set(_ context.Context, k string, v []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[k] = v
}

func testResume(roles int) *model.Resume {
	r := &model.Resume{Meta: model.Meta{Name: "Ada Lovelace"}, Summary: "Engines."}
	for i := 0; i < roles; i++ {
		r.Experience = append(r.Experience, model.Role{Company: fmt.Sprintf("C%d", i), Title: "Engineer"})
	}
	return r
}

func TestPreviewPaginates(t *testing.T) {
	m := &countingMeasurer{height: 400}
	s := NewPreviewService(m, nil, nil)

	p, err := s.Preview(context.Background(), PreviewRequest{ResumeKey: "r1", Resume: testResume(3)})
	require.NoError(t, err)
	assert.Equal(t, templates.Default, p.TemplateID)
	// header, summary and three roles at 400px on a 1027px page
	assert.Equal(t, 3, p.Count())
	assert.Equal(t, []string{"header", "summary"}, p.Pages[0].Keys())
	assert.False(t, p.Stale)
	assert.Same(t, p, s.LastGood("r1"))
}

func TestPreviewMemoizesByInput(t *testing.T) {
	m := &countingMeasurer{height: 100}
	s := NewPreviewService(m, newMapCache(), nil)
	ctx := context.Background()

	first, err := s.Preview(ctx, PreviewRequest{Resume: testResume(2)})
	require.NoError(t, err)
	second, err := s.Preview(ctx, PreviewRequest{Resume: testResume(2)})
	require.NoError(t, err)
	assert.Equal(t, 1, m.count())
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Pages, second.Pages)

	_, err = s.Preview(ctx, PreviewRequest{Resume: testResume(3)})
	require.NoError(t, err)
	assert.Equal(t, 2, m.count())

	_, err = s.Preview(ctx, PreviewRequest{Resume: testResume(2), TemplateID: "modern"})
	require.NoError(t, err)
	assert.Equal(t, 3, m.count())
}

func TestPreviewKeepsLastGoodOnFailure(t *testing.T) {
	m := &countingMeasurer{height: 400}
	s := NewPreviewService(m, nil, nil)
	ctx := context.Background()

	good, err := s.Preview(ctx, PreviewRequest{ResumeKey: "r1", Resume: testResume(3)})
	require.NoError(t, err)

	m.err = errors.New("renderer crashed")
	got, err := s.Preview(ctx, PreviewRequest{ResumeKey: "r1", Resume: testResume(4)})
	require.ErrorIs(t, err, pagination.ErrMeasurement)
	require.NotNil(t, got)
	assert.True(t, got.Stale)
	assert.Equal(t, good.Pages, got.Pages)
	assert.False(t, s.LastGood("r1").Stale)

	got, err = s.Preview(ctx, PreviewRequest{ResumeKey: "other", Resume: testResume(1)})
	assert.Error(t, err)
	assert.Nil(t, got)

	s.Forget("r1")
	assert.Nil(t, s.LastGood("r1"))
}

func TestPreviewUnknownTemplate(t *testing.T) {
	s := NewPreviewService(&countingMeasurer{height: 10}, nil, nil)
	_, err := s.Preview(context.Background(), PreviewRequest{Resume: testResume(1), TemplateID: "neon"})
	assert.ErrorIs(t, err, templates.ErrUnknownTemplate)
}

func TestMemoKeyDependsOnContentAndTemplate(t *testing.T) {
	classic, err := templates.Get("classic")
	require.NoError(t, err)
	modern, err := templates.Get("modern")
	require.NoError(t, err)

	a := []pagination.ContentBlock{{Key: "a", Content: "<p>x</p>"}}
	b := []pagination.ContentBlock{{Key: "a", Content: "<p>y</p>"}}
	assert.Equal(t, memoKey(classic, a), memoKey(classic, a))
	assert.NotEqual(t, memoKey(classic, a), memoKey(classic, b))
	assert.NotEqual(t, memoKey(classic, a), memoKey(modern, a))
}
