package mocks

import (
	"context"

	"github.com/drawbot-lab/backend/internal/client"
	"github.com/stretchr/testify/mock"
)

type ChatClient struct {
	mock.Mock
}

func (c *ChatClient) GetMemberStatus(arg1 context.Context, arg2, arg3 int64) (client.MemberStatus, error) {
	args := c.Called(arg1, arg2, arg3)

	if args.Get(0) == nil {
		return "", args.Error(1)
	}
	return args.Get(0).(client.MemberStatus), args.Error(1)
}

func (c *ChatClient) GetChatTitle(arg1 context.Context, arg2 int64) (string, error) {
	args := c.Called(arg1, arg2)

	if args.Get(0) == nil {
		return "", args.Error(1)
	}
	return args.String(0), args.Error(1)
}

func (c *ChatClient) SendMessage(arg1 context.Context, arg2 int64, arg3 string) error {
	args := c.Called(arg1, arg2, arg3)
	return args.Error(0)
}
