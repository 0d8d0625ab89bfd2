package api

import (
	"errors"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"

	"github.com/lazylions/lazy-leaderboard/internal/holder"
	"github.com/lazylions/lazy-leaderboard/internal/leaderboard"
	"github.com/lazylions/lazy-leaderboard/internal/models"
	"github.com/lazylions/lazy-leaderboard/internal/refresh"
	"github.com/lazylions/lazy-leaderboard/pkg/logger"
)

const maxProxyLimit = 100

type batchEntry struct {
	address string
	name    *string
}

// BatchResponse order 为过滤排序后的地址顺序，ensNames 以请求中的原始地址为 key
type BatchResponse struct {
	EnsNames map[string]*string `json:"ensNames"`
	Order    []string           `json:"order"`
}

type LookupResponse struct {
	EnsName *string `json:"ensName"`
	Cache   string  `json:"cache"`
}

type LookupErrorResponse struct {
	EnsName *string `json:"ensName"`
	Error   string  `json:"error"`
	Details string  `json:"details"`
	Address string  `json:"address"`
}

type RefreshResponse struct {
	Processed int `json:"processed"`
	EnsFound  int `json:"ensFound"`
}

// lookupBatch 只读缓存，addresses 不是数组时直接拒绝
func (s *Server) lookupBatch(c *fiber.Ctx) error {
	body := c.Body()
	if !gjson.ValidBytes(body) {
		return ValidationError{Message: "request body must be JSON"}
	}

	req := gjson.ParseBytes(body)
	list := req.Get("addresses")
	if !list.IsArray() {
		return ValidationError{Message: "addresses must be an array"}
	}

	sortBy := strings.ToLower(req.Get("sortBy").String())
	if sortBy != "" && sortBy != "address" && sortBy != "ens" {
		return ValidationError{Message: "sortBy must be address or ens"}
	}
	asc := strings.EqualFold(req.Get("sortDirection").String(), "asc")
	filter := strings.ToLower(req.Get("filter").String())

	addrs := make([]string, 0, len(list.Array()))
	for _, a := range list.Array() {
		if a.Type != gjson.String {
			return ValidationError{Message: "addresses must contain strings"}
		}
		addrs = append(addrs, a.String())
	}

	names := s.deps.Names.ResolveBatch(c.UserContext(), addrs)

	entries := make([]batchEntry, 0, len(addrs))
	for _, a := range addrs {
		name := names[a].Ptr()
		if filter != "" && !matches(a, name, filter) {
			continue
		}
		entries = append(entries, batchEntry{address: a, name: name})
	}

	if sortBy != "" {
		sort.SliceStable(entries, func(i, j int) bool {
			ki, kj := entries[i].sortValue(sortBy), entries[j].sortValue(sortBy)
			if asc {
				return ki < kj
			}
			return ki > kj
		})
	}

	resp := BatchResponse{
		EnsNames: make(map[string]*string, len(entries)),
		Order:    make([]string, 0, len(entries)),
	}
	for _, e := range entries {
		if _, dup := resp.EnsNames[e.address]; !dup {
			resp.Order = append(resp.Order, e.address)
		}
		resp.EnsNames[e.address] = e.name
	}

	return c.JSON(resp)
}

func matches(addr string, name *string, filter string) bool {
	if strings.Contains(strings.ToLower(addr), filter) {
		return true
	}
	return name != nil && strings.Contains(strings.ToLower(*name), filter)
}

func (e batchEntry) sortValue(sortBy string) string {
	if sortBy == "address" {
		return strings.ToLower(e.address)
	}
	if e.name == nil {
		return ""
	}
	return strings.ToLower(*e.name)
}

// lookup 单地址只读缓存
func (s *Server) lookup(c *fiber.Ctx) error {
	raw := c.Query("address")
	if strings.TrimSpace(raw) == "" {
		return ValidationError{Message: "Missing address parameter"}
	}

	res, err := s.deps.Names.Resolve(c.UserContext(), models.NormalizeAddress(raw))
	if err != nil {
		logger.Error().Err(err).Str("address", raw).Msg("name lookup failed")
		return c.Status(fiber.StatusInternalServerError).JSON(LookupErrorResponse{
			Error:   "Failed to read ENS from cache",
			Details: err.Error(),
			Address: raw,
		})
	}

	if !res.Hit {
		return c.JSON(LookupResponse{Cache: "miss"})
	}
	return c.JSON(LookupResponse{EnsName: res.Ptr(), Cache: "hit"})
}

func (s *Server) getLeaderboard(c *fiber.Ctx) error {
	src, err := leaderboard.ParseSource(c.Params("source"))
	if err != nil {
		return ValidationError{Message: err.Error()}
	}

	key, err := holder.ParseSortKey(c.Query("sortKey"))
	if err != nil {
		return ValidationError{Message: err.Error()}
	}
	dir, err := holder.ParseDirection(c.Query("sortDirection"))
	if err != nil {
		return ValidationError{Message: err.Error()}
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("pageSize", 0)
	if page < 1 || pageSize < 0 || pageSize > 250 {
		return ValidationError{Message: "invalid page or pageSize"}
	}

	res, err := s.deps.Leaderboard.Leaderboard(c.UserContext(), leaderboard.Query{
		Source:    src,
		Page:      page,
		PageSize:  pageSize,
		SortKey:   key,
		Direction: dir,
		WithNames: c.QueryBool("names", true),
	})
	if err != nil {
		return RequestError{Code: fiber.StatusBadGateway, Message: "failed to load leaderboard", Details: err.Error()}
	}

	return c.JSON(res)
}

func (s *Server) refreshNames(c *fiber.Ctx) error {
	summary, err := s.deps.Refresher.RunNow(c.UserContext())
	if err != nil {
		code := fiber.StatusInternalServerError
		if errors.Is(err, refresh.ErrAlreadyRunning) {
			code = fiber.StatusConflict
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(RefreshResponse{Processed: summary.Processed, EnsFound: summary.EnsFound})
}

// tokenHolders 代理 top-holders，供前端直接分页
func (s *Server) tokenHolders(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if page < 1 || limit < 1 || limit > maxProxyLimit {
		return ValidationError{Message: "invalid page or limit"}
	}

	body, err := s.deps.Holders.TopHoldersRaw(c.UserContext(), page, limit)
	if err != nil {
		return RequestError{Code: fiber.StatusBadGateway, Message: "failed to fetch token holders", Details: err.Error()}
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}
