package handler

import (
	"context"
	"fmt"

	"ai-query-router-be/internal/constant"
	"ai-query-router-be/internal/entity"
)

// StaticHandler answers with a fixed reply and never touches the network
type StaticHandler struct {
	category entity.Category
	reply    string
}

func NewStaticHandler(cfg entity.HandlerConfiguration, deps Dependencies) (Handler, error) {
	reply, ok := cfg.Resource(constant.ResourceReply)
	if !ok {
		return nil, fmt.Errorf("%s: static handler needs resources.%s", cfg.Category, constant.ResourceReply)
	}
	return &StaticHandler{category: cfg.Category, reply: reply}, nil
}

func (h *StaticHandler) Category() entity.Category {
	return h.category
}

func (h *StaticHandler) Validate(req *Request) error {
	return ValidateRequest(req)
}

func (h *StaticHandler) Handle(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Response{
		Success:  true,
		Text:     h.reply,
		Metadata: map[string]string{"category": string(h.category)},
	}, nil
}
