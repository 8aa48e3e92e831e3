package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doccollate/internal/common"
)

func defaultResolver(t *testing.T) *Resolver {
	t.Helper()
	c, err := Default()
	require.NoError(t, err)
	r, err := NewResolver(c)
	require.NoError(t, err)
	return r
}

func TestRequiredClosure(t *testing.T) {
	r := defaultResolver(t)
	for _, target := range []string{TargetTestForms, TargetCopyright, TargetProposal} {
		t.Run(target, func(t *testing.T) {
			got, err := r.Required(target)
			require.NoError(t, err)

			again := r.Expand(got)
			assert.Equal(t, got, again, "closure must be a fixed point")

			for f := range got {
				for _, dep := range r.Catalog().DependenciesOf(f) {
					assert.True(t, got.Has(dep), "%s depends on %s", f, dep)
				}
			}
		})
	}
}

func TestRequiredCopyrightPullsDependencies(t *testing.T) {
	got, err := defaultResolver(t).Required(TargetCopyright)
	require.NoError(t, err)

	for _, f := range []string{
		"tech__os_dev", "env__os_version", "env__os",
		"tech__main_functions", "product__main_functions", "product__func_list",
	} {
		assert.True(t, got.Has(f), f)
	}
}

func TestRequiredProposalIsEmpty(t *testing.T) {
	got, err := defaultResolver(t).Required(TargetProposal)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRequiredUnknownTarget(t *testing.T) {
	_, err := defaultResolver(t).Required("invoice")
	require.Error(t, err)
	assert.True(t, common.IsConfiguration(err))
}

func TestNewResolverRejectsCycle(t *testing.T) {
	c, err := Parse([]byte(`
targets:
  a: [x]
dependencies:
  x: [y]
  y: [z]
  z: [x]
`))
	require.NoError(t, err)

	_, err = NewResolver(c)
	require.Error(t, err)
	assert.True(t, common.IsConfiguration(err))
	assert.Contains(t, err.Error(), "x -> y -> z -> x")
}

func TestParseRejectsDuplicateField(t *testing.T) {
	_, err := Parse([]byte("fields:\n  - name: a\n  - name: a\n"))
	assert.True(t, common.IsConfiguration(err))
}

func TestCatalogSpec(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	mem := c.Spec("env__memory_req")
	assert.Equal(t, "内存要求 内存", mem.Query)
	assert.Equal(t, DefaultTopK, mem.TopK)
	assert.NotEmpty(t, mem.Prompt)

	unknown := c.Spec("assess__workload")
	assert.Equal(t, "assess workload", unknown.Query)
	assert.Empty(t, unknown.TitleKeywords)
}

func TestPromptSpecs(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	all := c.PromptSpecs(nil)
	require.Len(t, all, 17)
	assert.Equal(t, "app__product_type", all[0].Name)
	for _, s := range all {
		assert.NotEqual(t, FuncList, s.Name)
	}

	some := c.PromptSpecs(NewSet("env__os", "tech__os_run"))
	require.Len(t, some, 1)
	assert.Equal(t, "env__os", some[0].Name)
}
