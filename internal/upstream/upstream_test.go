package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlchemyClient_GetOwnersForCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nft/v2/key123/getOwnersForCollection", r.URL.Path)
		assert.Equal(t, "0xlions", r.URL.Query().Get("contractAddress"))
		assert.Equal(t, "true", r.URL.Query().Get("withTokenBalances"))
		w.Write([]byte(`{"ownerAddresses":[
			{"ownerAddress":"0xAAA","tokenBalances":[{"tokenId":"1","balance":1},{"tokenId":"2","balance":1}]},
			{"ownerAddress":"0xbbb","tokenBalances":[{"tokenId":"3","balance":1}]}
		]}`))
	}))
	defer srv.Close()

	c := NewAlchemyClient(srv.URL, "key123")
	owners, err := c.GetOwnersForCollection(context.Background(), "0xlions")
	require.NoError(t, err)
	require.Len(t, owners, 2)
	assert.Equal(t, CollectionOwner{Address: "0xAAA", TokenCount: 2}, owners[0])
	assert.Equal(t, 1, owners[1].TokenCount)
}

func TestAlchemyClient_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	_, err := NewAlchemyClient(srv.URL, "k").GetOwnersForCollection(context.Background(), "0x1")
	require.Error(t, err)

	var upErr *Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusInternalServerError, upErr.StatusCode)
	assert.Equal(t, SourceAlchemy, upErr.Source)
	assert.False(t, IsRateLimited(err))
}

func TestChainbaseClient_TopHolders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/token/top-holders", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, "8453", r.URL.Query().Get("chain_id"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"code":0,"data":[{"wallet_address":"0xA","amount":"12.5"},{"wallet_address":"0xB","amount":7}],"count":420}`))
	}))
	defer srv.Close()

	c := NewChainbaseClient(srv.URL, "secret", 8453, "0xtoken")
	page, err := c.TopHolders(context.Background(), 2, 50)
	require.NoError(t, err)
	require.Len(t, page.Holders, 2)
	assert.Equal(t, "12.5", page.Holders[0].Amount)
	assert.Equal(t, float64(7), page.Holders[1].Amount)
	assert.Equal(t, int64(420), page.Total)
}

func TestChainbaseClient_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewChainbaseClient(srv.URL, "", 8453, "0x").TopHolders(context.Background(), 1, 50)
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestParseTopHolders(t *testing.T) {
	_, err := ParseTopHolders([]byte(`{"data":null}`))
	assert.ErrorIs(t, err, ErrEmptyPage)

	_, err = ParseTopHolders([]byte(`{"message":"no data"}`))
	assert.ErrorIs(t, err, ErrEmptyPage)

	_, err = ParseTopHolders([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformed)

	page, err := ParseTopHolders([]byte(`{"data":[]}`))
	require.NoError(t, err)
	assert.Empty(t, page.Holders)
	assert.Equal(t, int64(0), page.Total)
}

func TestCreatorBidClient_LockedBalances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/agents/agent1/members", r.URL.Path)
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"members":[{"address":"0xAbc","amountLocked":"100.6"},{"address":"","amountLocked":"1"}]}`))
	}))
	defer srv.Close()

	members, err := NewCreatorBidClient(srv.URL, "agent1").LockedBalances(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "0xAbc", members[0].Address)
	assert.Equal(t, "100.6", members[0].AmountLocked)
}

func TestCreatorBidClient_MissingMembers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total":0}`))
	}))
	defer srv.Close()

	members, err := NewCreatorBidClient(srv.URL, "a").LockedBalances(context.Background())
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestNewHTTPClient(t *testing.T) {
	hc, err := NewHTTPClient(0, "")
	require.NoError(t, err)
	assert.Equal(t, defaultTimeout, hc.Timeout)
	assert.Nil(t, hc.Transport)

	hc, err = NewHTTPClient(0, "127.0.0.1:1080")
	require.NoError(t, err)
	assert.NotNil(t, hc.Transport)
}
