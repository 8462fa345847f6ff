//
// Copyright 2026 The Waydroid Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package binder

import (
	"context"

	"github.com/waydroid/waydroid/domain"
)

const (
	statusBarInterface = "com.android.internal.statusbar.IStatusBarService"
	statusBarService    = "statusbar"

	txExpand   uint32 = 1
	txCollapse uint32 = 2
)

// StatusBarClient calls Android's IStatusBarService to expand or collapse
// the notification shade, matching spec.md §6.
type StatusBarClient struct {
	client *Client
	handle domain.BinderHandle
}

// NewStatusBarClient resolves the statusbar service and returns a typed
// client over it.
func NewStatusBarClient(ctx context.Context, c *Client) (*StatusBarClient, error) {
	if err := c.WaitServiceManager(ctx); err != nil {
		return nil, err
	}
	h, err := c.GetService(ctx, statusBarService)
	if err != nil {
		return nil, err
	}
	return &StatusBarClient{client: c, handle: h}, nil
}

// Expand opens the notification shade.
func (s *StatusBarClient) Expand(ctx context.Context) error {
	_, err := s.client.Call(ctx, s.handle, txExpand, nil)
	return err
}

// Collapse closes the notification shade.
func (s *StatusBarClient) Collapse(ctx context.Context) error {
	_, err := s.client.Call(ctx, s.handle, txCollapse, nil)
	return err
}
