package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"bricklink/taxonomy/internal/config"
	"bricklink/taxonomy/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const treePage = `<html><body><table><tr><td>
<a href="/catalogList.asp?catType=P&amp;catString=5">Brick</a>&nbsp;(1234)<br>
<a href="/catalogList.asp?catType=P&amp;catString=5.6">Brick, Round</a> (12)<br>
<a href="/catalogList.asp?catType=P&amp;catString=5.7">Brick, Modified</a> (40)<br>
<a href="/catalogList.asp?catType=P&amp;catString=26">Plate</a> (99)<br>
<a href="/catalogList.asp?catType=S&amp;catString=65">Other Type</a> (3)<br>
<a href="/catalogList.asp?catType=P&amp;catString=27">Tile</a><br>
</td></tr></table></body></html>`

const itemPage = `<html><body><h1>Brick, Round 2 x 2</h1><table><tr>
<td style="background-color: #eeeeee">Catalog: <a href="//www.bricklink.com/catalog.asp">Catalog</a>:
<a href="/catalogTree.asp?itemType=P">Parts</a>:
<a href="/catalogList.asp?catType=P&amp;catString=5">Brick</a>:
<a href="/catalogList.asp?catType=P&amp;catString=5.6">Brick, Round</a>: 3941</td>
</tr></table></body></html>`

func newTestClient(t *testing.T, handler http.HandlerFunc) BrickLinkClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewBrickLinkClient(config.BrickLinkConfig{
		BaseURL: srv.URL,
		Timeout: 5,
	}, nil)
}

func TestGetCategoryTree(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/catalogTree.asp", r.URL.Path)
		assert.Equal(t, "P", r.URL.Query().Get("itemType"))
		_, _ = w.Write([]byte(treePage))
	})

	tree, err := c.GetCategoryTree(context.Background(), domain.CategoryTypePart)
	require.NoError(t, err)

	assert.Equal(t, []string{"5", "26", "27"}, tree.TopLevelIDs())
	assert.NotContains(t, tree, "65")

	brick := tree["5"]
	assert.Equal(t, "Brick", brick.Name)
	assert.Equal(t, 1234, brick.Count)
	assert.Equal(t, []string{"5.6", "5.7"}, brick.ChildrenIDs)

	assert.Equal(t, "5", tree["5.6"].ParentID)
	assert.Equal(t, 12, tree["5.6"].Count)
	assert.True(t, tree["26"].IsLeaf)
	assert.Equal(t, 0, tree["27"].Count)
}

func TestGetCategoryTree_EmptyPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>nothing here</body></html>`))
	})

	_, err := c.GetCategoryTree(context.Background(), domain.CategoryTypeBook)
	assert.ErrorContains(t, err, "no categories found")
}

func TestGetItemCategory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3941", r.URL.Query().Get("P"))
		_, _ = w.Write([]byte(itemPage))
	})

	hierarchy, err := c.GetItemCategory(context.Background(), domain.CategoryTypePart, "3941")
	require.NoError(t, err)

	assert.Equal(t, "Parts: Brick: Brick, Round", hierarchy.FullPath)
	require.Len(t, hierarchy.Subcategories, 3)
	assert.Equal(t, "P", hierarchy.Subcategories[0].ID)
	assert.Equal(t, "5.6", hierarchy.Subcategories[2].ID)

	id, ok := hierarchy.DeepestCategoryID()
	require.True(t, ok)
	assert.Equal(t, "5.6", id)
}

func TestFetch_QuotaExceededOpensCircuitBreaker(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<html>Quota Exceeded</html>`))
	})

	_, err := c.GetCategoryTree(context.Background(), domain.CategoryTypeSet)
	assert.ErrorContains(t, err, "quota exceeded")

	_, err = c.GetCategoryTree(context.Background(), domain.CategoryTypeSet)
	assert.ErrorContains(t, err, "circuit breaker is open")
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetch_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetItemCategory(context.Background(), domain.CategoryTypePart, "x")
	assert.ErrorContains(t, err, "HTTP error: 404")
}
