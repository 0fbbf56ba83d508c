// Package api holds the wire messages of the card service and a client
// for its connect JSON endpoints.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"arzmania-cards/internal/constants"
	apperrors "arzmania-cards/internal/errors"

	"github.com/valyala/fasthttp"
)

type Client struct {
	baseURL string
	client  *fasthttp.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         constants.ClientTimeout,
			WriteTimeout:        constants.ClientTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *Client) DrawLoot(ctx context.Context, req *DrawLootRequest) (*DrawLootResponse, error) {
	return doRequest[DrawLootResponse](ctx, c, ProcedureDrawLoot, req)
}

func (c *Client) ResetCooldown(ctx context.Context, req *ResetCooldownRequest) (*ResetCooldownResponse, error) {
	return doRequest[ResetCooldownResponse](ctx, c, ProcedureResetCooldown, req)
}

func (c *Client) Duel(ctx context.Context, req *DuelRequest) (*DuelResponse, error) {
	return doRequest[DuelResponse](ctx, c, ProcedureDuel, req)
}

func (c *Client) GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error) {
	return doRequest[GetStatsResponse](ctx, c, ProcedureGetStats, req)
}

func (c *Client) GetRecord(ctx context.Context, req *GetRecordRequest) (*GetRecordResponse, error) {
	return doRequest[GetRecordResponse](ctx, c, ProcedureGetRecord, req)
}

func (c *Client) AddCard(ctx context.Context, req *AddCardRequest) (*CardResponse, error) {
	return doRequest[CardResponse](ctx, c, ProcedureAddCard, req)
}

func (c *Client) DeleteCard(ctx context.Context, req *DeleteCardRequest) (*CardResponse, error) {
	return doRequest[CardResponse](ctx, c, ProcedureDeleteCard, req)
}

func (c *Client) SetCardImage(ctx context.Context, req *SetCardImageRequest) (*CardResponse, error) {
	return doRequest[CardResponse](ctx, c, ProcedureSetCardImage, req)
}

func (c *Client) ListCards(ctx context.Context, req *ListCardsRequest) (*ListCardsResponse, error) {
	return doRequest[ListCardsResponse](ctx, c, ProcedureListCards, req)
}

func (c *Client) ListInventory(ctx context.Context, req *ListInventoryRequest) (*ListInventoryResponse, error) {
	return doRequest[ListInventoryResponse](ctx, c, ProcedureListInventory, req)
}

func (c *Client) GiveCard(ctx context.Context, req *GiveCardRequest) (*CardResponse, error) {
	return doRequest[CardResponse](ctx, c, ProcedureGiveCard, req)
}

func (c *Client) GrantCard(ctx context.Context, req *GrantCardRequest) (*CardResponse, error) {
	return doRequest[CardResponse](ctx, c, ProcedureGrantCard, req)
}

func (c *Client) GetCard(ctx context.Context, req *GetCardRequest) (*CardResponse, error) {
	return doRequest[CardResponse](ctx, c, ProcedureGetCard, req)
}

func (c *Client) SetFavorite(ctx context.Context, req *SetFavoriteRequest) (*CardResponse, error) {
	return doRequest[CardResponse](ctx, c, ProcedureSetFavorite, req)
}

// wireError is the body of a connect error response.
type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func doRequest[T any](ctx context.Context, client *Client, procedure string, msg any) (*T, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", procedure, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(client.baseURL + procedure)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Connect-Protocol-Version", "1")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, decodeError(resp)
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", procedure, err)
	}
	return &result, nil
}

func decodeError(resp *fasthttp.Response) error {
	var we wireError
	_ = json.Unmarshal(resp.Body(), &we)
	if code := string(resp.Header.Peek(ErrorCodeHeader)); code != "" {
		return apperrors.New(apperrors.Code(code), we.Message)
	}
	if we.Code != "" {
		return fmt.Errorf("API error: %d %s: %s", resp.StatusCode(), we.Code, we.Message)
	}
	return fmt.Errorf("API error: %d", resp.StatusCode())
}
