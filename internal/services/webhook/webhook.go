package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	com "github.com/citizenwallet/dao/internal/common"
	"github.com/citizenwallet/dao/pkg/dao"
	"github.com/citizenwallet/dao/pkg/queue"
)

type Message struct {
	Content string `json:"content"`
}

type Messager struct {
	BaseURL string
	DAOName string

	notify bool
	client *http.Client
}

func NewMessager(baseURL, daoName string, notify bool) *Messager {
	return &Messager{
		BaseURL: baseURL,
		DAOName: daoName,
		notify:  notify && baseURL != "",
		client:  http.DefaultClient,
	}
}

func (b *Messager) Notify(ctx context.Context, message string) error {
	return b.post(ctx, fmt.Sprintf("[%s] %s", b.DAOName, message))
}

func (b *Messager) NotifyWarning(ctx context.Context, errorMessage error) error {
	return b.post(ctx, fmt.Sprintf("[%s] warning: %s", b.DAOName, errorMessage.Error()))
}

func (b *Messager) NotifyError(ctx context.Context, errorMessage error) error {
	return b.post(ctx, fmt.Sprintf("[%s] error: %s", b.DAOName, errorMessage.Error()))
}

func (b *Messager) post(ctx context.Context, content string) error {
	if !b.notify {
		return nil
	}

	data, err := json.Marshal(Message{Content: content})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL, bytes.NewReader(data))
	if err != nil {
		return err
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.New("error sending message")
	}

	return nil
}

// Process delivers a queued governance event as a chat message
func (b *Messager) Process(m queue.Message) error {
	return b.Notify(context.Background(), Describe(m.Event))
}

// Describe renders an event as a single line of text
func Describe(ev dao.Event) string {
	switch ev.Type {
	case dao.EventMemberJoined:
		return fmt.Sprintf("%s joined paying %s", com.ShortAddress(ev.Address), ev.Amount)
	case dao.EventDelegateChanged:
		if ev.Address == ev.Target {
			return fmt.Sprintf("%s took back its voting weight", com.ShortAddress(ev.Address))
		}
		return fmt.Sprintf("%s delegated to %s", com.ShortAddress(ev.Address), com.ShortAddress(ev.Target))
	case dao.EventProposalCreated:
		return fmt.Sprintf("proposal #%d created by %s", ev.ProposalID, com.ShortAddress(ev.Address))
	case dao.EventVoteCast:
		side := "against"
		if ev.Support {
			side = "for"
		}
		return fmt.Sprintf("%s voted %s proposal #%d with %s", com.ShortAddress(ev.Address), side, ev.ProposalID, ev.Amount)
	case dao.EventProposalExecuted:
		return fmt.Sprintf("proposal #%d executed", ev.ProposalID)
	case dao.EventExecutionReverted:
		return fmt.Sprintf("proposal #%d failed to execute: %s", ev.ProposalID, ev.Reason)
	default:
		return string(ev.Type)
	}
}
