package client

import (
	"context"
	"fmt"

	"membership-bot/internal/config"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

type PaymentClient interface {
	CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*CreateTransactionResponse, error)
}

type CreateTransactionRequest struct {
	OrderID      string
	Amount       int64
	ItemID       string
	ItemName     string
	CustomerName string
	Email        string
}

type CreateTransactionResponse struct {
	Token      string
	PaymentURL string
}

// snapAPI is the subset of snap.Client the bot uses.
type snapAPI interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

type midtransClientImpl struct {
	snap snapAPI
}

func NewMidtransClient(cfg *config.Midtrans) PaymentClient {
	env := midtrans.Sandbox
	if cfg.Environment == "production" {
		env = midtrans.Production
	}

	var s snap.Client
	s.New(cfg.ServerKey, env)

	return &midtransClientImpl{
		snap: &s,
	}
}

func (c *midtransClientImpl) CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*CreateTransactionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    req.ItemID,
				Name:  req.ItemName,
				Price: req.Amount,
				Qty:   1,
			},
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerName,
			Email: req.Email,
		},
	}

	resp, mErr := c.snap.CreateTransaction(snapReq)
	if mErr != nil {
		return nil, fmt.Errorf("%w: create snap transaction: %s", ErrGatewayUnavailable, mErr.Message)
	}
	if resp == nil || resp.RedirectURL == "" {
		return nil, fmt.Errorf("%w: snap transaction without redirect url", ErrGatewayUnavailable)
	}

	return &CreateTransactionResponse{
		Token:      resp.Token,
		PaymentURL: resp.RedirectURL,
	}, nil
}
