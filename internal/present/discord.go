// Package present publishes session panels to chat platforms.
package present

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"sync"

	"hexa-arcade/internal/engine"
	"hexa-arcade/internal/present/platforms"
)

// Discord keeps one webhook message per session and edits it on every change.
type Discord struct {
	hook *platforms.Discord

	mu   sync.Mutex
	last map[string]uint64
}

func NewDiscord(hook *platforms.Discord) *Discord {
	return &Discord{hook: hook, last: map[string]uint64{}}
}

func (d *Discord) Render(ctx context.Context, snap engine.Snapshot) (string, error) {
	msg := Format(snap)
	id, err := d.hook.Create(ctx, msg)
	if err != nil {
		return "", err
	}
	d.remember(id, digest(msg))
	return id, nil
}

// Update skips the edit when the panel would not change.
func (d *Discord) Update(ctx context.Context, handle string, snap engine.Snapshot) error {
	msg := Format(snap)
	sum := digest(msg)
	if d.unchanged(handle, sum) {
		return nil
	}
	if err := d.hook.Edit(ctx, handle, msg); err != nil {
		return err
	}
	d.remember(handle, sum)
	return nil
}

func (d *Discord) Forget(handle string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.last, handle)
}

func (d *Discord) remember(handle string, sum uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last[handle] = sum
}

func (d *Discord) unchanged(handle string, sum uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.last[handle]
	return ok && prev == sum
}

func digest(msg platforms.Message) uint64 {
	raw, _ := json.Marshal(msg)
	h := fnv.New64a()
	_, _ = h.Write(raw)
	return h.Sum64()
}
