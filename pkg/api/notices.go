// MLED
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of MLED.
//
// MLED is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// MLED is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with MLED.  If not, see <http://www.gnu.org/licenses/>.

package api

import (
	"time"

	"github.com/ZaparooProject/mled/pkg/display"
	"github.com/ZaparooProject/mled/pkg/helpers/syncutil"
)

const noticeLogSize = 20

// NoticeEntry is a notice as reported over the API.
type NoticeEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Error   string    `json:"error,omitempty"`
}

// NoticeLog is a display.Listener that keeps the most recent notices.
type NoticeLog struct {
	now     func() time.Time
	entries []NoticeEntry
	mu      syncutil.Mutex
}

func NewNoticeLog() *NoticeLog {
	return &NoticeLog{now: time.Now}
}

func (n *NoticeLog) Notice(notice display.Notice) {
	e := NoticeEntry{
		Time:    n.now(),
		Level:   notice.Level.String(),
		Message: notice.Message,
	}
	if notice.Err != nil {
		e.Error = notice.Err.Error()
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, e)
	if len(n.entries) > noticeLogSize {
		n.entries = n.entries[len(n.entries)-noticeLogSize:]
	}
}

func (*NoticeLog) ModeChanged(display.Mode) {}

// Recent returns the logged notices, oldest first. A nil log has none.
func (n *NoticeLog) Recent() []NoticeEntry {
	if n == nil {
		return []NoticeEntry{}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]NoticeEntry, len(n.entries))
	copy(out, n.entries)
	return out
}
