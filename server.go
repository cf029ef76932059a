package uniswap_v3_simulator

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// apiResponse is the envelope every observation endpoint returns.
type apiResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ObservationServer exposes a pool's read accessors (§6) over HTTP for
// inspection and debugging; it never accepts a mint or a swap.
type ObservationServer struct {
	pool   *Pool
	engine *gin.Engine
}

// NewObservationServer wires the read-only routes for pool onto a
// fresh gin.Engine.
func NewObservationServer(pool *Pool) *ObservationServer {
	s := &ObservationServer{pool: pool, engine: gin.Default()}
	v1 := s.engine.Group("/api/v1/pool")
	{
		v1.GET("/slot0", s.getSlot0)
		v1.GET("/liquidity", s.getLiquidity)
		v1.GET("/positions/:owner/:lowerTick/:upperTick", s.getPosition)
		v1.GET("/ticks/:tick", s.getTick)
		v1.GET("/tick-bitmap/:wordPos", s.getTickBitmapWord)
	}
	return s
}

func (s *ObservationServer) Handler() http.Handler {
	return s.engine
}

func (s *ObservationServer) getSlot0(c *gin.Context) {
	slot0 := s.pool.Slot0()
	c.JSON(http.StatusOK, apiResponse{Code: 200, Data: gin.H{
		"sqrtPriceX96": slot0.SqrtPriceX96.String(),
		"tick":         slot0.Tick,
	}})
}

func (s *ObservationServer) getLiquidity(c *gin.Context) {
	c.JSON(http.StatusOK, apiResponse{Code: 200, Data: gin.H{
		"liquidity": s.pool.Liquidity().String(),
	}})
}

func (s *ObservationServer) getPosition(c *gin.Context) {
	owner := c.Param("owner")
	if !common.IsHexAddress(owner) {
		c.JSON(http.StatusBadRequest, apiResponse{Code: 400, Message: "owner is not a valid address"})
		return
	}
	lowerTick, err := parseTickParam(c.Param("lowerTick"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apiResponse{Code: 400, Message: err.Error()})
		return
	}
	upperTick, err := parseTickParam(c.Param("upperTick"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apiResponse{Code: 400, Message: err.Error()})
		return
	}
	liquidity := s.pool.Positions(common.HexToAddress(owner), lowerTick, upperTick)
	c.JSON(http.StatusOK, apiResponse{Code: 200, Data: gin.H{"liquidity": liquidity.String()}})
}

func (s *ObservationServer) getTick(c *gin.Context) {
	tick, err := parseTickParam(c.Param("tick"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apiResponse{Code: 400, Message: err.Error()})
		return
	}
	initialized, gross, net := s.pool.Ticks(tick)
	c.JSON(http.StatusOK, apiResponse{Code: 200, Data: gin.H{
		"initialized":    initialized,
		"liquidityGross": gross.String(),
		"liquidityNet":   net.String(),
	}})
}

func (s *ObservationServer) getTickBitmapWord(c *gin.Context) {
	wordPos, err := strconv.ParseInt(c.Param("wordPos"), 10, 16)
	if err != nil {
		c.JSON(http.StatusBadRequest, apiResponse{Code: 400, Message: "wordPos must be a signed 16-bit integer"})
		return
	}
	word := s.pool.TickBitmap(int16(wordPos))
	c.JSON(http.StatusOK, apiResponse{Code: 200, Data: gin.H{"word": word.String()}})
}

func parseTickParam(raw string) (int32, error) {
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}
