package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/policy"
)

// ListResponse 列表响应
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func newList[T any](items []T, total int) *ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return &ListResponse[T]{Items: items, Total: total}
}

// jst 日期边界（按日汇总、线程名）按机构所在地时间计算
var jst = time.FixedZone("JST", 9*60*60)

// notFoundOr maps a repository ErrNotFound to a NotFound error and wraps anything else.
func notFoundOr(err error, what string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return policy.ErrNotFound(what + " not found")
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return policy.ErrBadRequest(field + " is required")
	}
	return nil
}

func percentage(field string, v int) error {
	if v < 0 || v > 100 {
		return policy.ErrBadRequest(field + " must be between 0 and 100")
	}
	return nil
}

func nonNegative(field string, v int) error {
	if v < 0 {
		return policy.ErrBadRequest(field + " must not be negative")
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
