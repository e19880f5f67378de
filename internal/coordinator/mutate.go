package coordinator

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
)

// ChangeSenderStatus optimistically rewrites the sender's status in the
// cached groups and window, then returns the command performing the
// remote update. Local state is not rolled back on failure; the next
// sender-group fetch re-derives it from the cache.
func (c *Coordinator) ChangeSenderStatus(email, sender string, status model.SenderStatus) tea.Cmd {
	if !c.connected(email) {
		return nil
	}

	groups := c.groups[email]
	for i := range groups {
		if groups[i].SenderEmail != sender {
			continue
		}
		groups[i].Status = status
		for j := range groups[i].Messages {
			groups[i].Messages[j].Status = status
		}
	}

	recent := c.recent[email]
	for i := range recent {
		if recent[i].Sender.Email == sender {
			recent[i].Status = status
		}
	}

	eng := c.eng
	return func() tea.Msg {
		err := eng.SetSenderStatus(context.Background(), email, sender, status)
		return StatusChangedMsg{Email: email, Sender: sender, Status: status, Err: err}
	}
}

// DeleteMessage optimistically removes one message from the cached
// groups and window, then returns the command performing the remote
// delete. A delete already in flight for the same message is a no-op,
// as is a message the cache no longer holds.
func (c *Coordinator) DeleteMessage(email, sender string, uid uint32) tea.Cmd {
	if !c.connected(email) {
		return nil
	}

	key := deleteKey(email, sender, uid)
	if c.inflightDeletes[key] {
		return nil
	}

	if !c.removeLocal(email, sender, uid) {
		return nil
	}
	c.inflightDeletes[key] = true

	eng := c.eng
	return func() tea.Msg {
		err := eng.DeleteMessage(context.Background(), email, uid)
		return MessageDeletedMsg{Email: email, Sender: sender, UID: uid, Err: err}
	}
}

// DeleteSenderMessages fans out a delete for every cached message from
// the sender, reporting the submitted count immediately. Each delete
// still completes (or fails) individually.
func (c *Coordinator) DeleteSenderMessages(email, sender string) tea.Cmd {
	if !c.connected(email) {
		return nil
	}

	var uids []uint32
	for _, g := range c.groups[email] {
		if g.SenderEmail != sender {
			continue
		}
		for _, m := range g.Messages {
			uids = append(uids, m.UID)
		}
	}

	var cmds []tea.Cmd
	for _, uid := range uids {
		if cmd := c.DeleteMessage(email, sender, uid); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	submitted := len(cmds)
	cmds = append(cmds, func() tea.Msg {
		return BulkDeleteSubmittedMsg{Email: email, Count: submitted}
	})
	return tea.Batch(cmds...)
}

func (c *Coordinator) applyStatusChanged(msg StatusChangedMsg) tea.Cmd {
	if msg.Err != nil {
		return noticeCmd(errorNotice(msg.Email, fmt.Sprintf("updating sender status: %v", msg.Err)))
	}
	return noticeCmd(successNotice(msg.Email, fmt.Sprintf("%s marked %s", msg.Sender, msg.Status)))
}

func (c *Coordinator) applyMessageDeleted(msg MessageDeletedMsg) tea.Cmd {
	delete(c.inflightDeletes, deleteKey(msg.Email, msg.Sender, msg.UID))

	if msg.Err != nil {
		return noticeCmd(errorNotice(msg.Email, fmt.Sprintf("deleting message %d: %v", msg.UID, msg.Err)))
	}
	return nil
}

// removeLocal drops the message from the cached groups and window and
// reports whether anything was actually removed. A sender group that
// empties out is removed entirely, and the expansion pointer is cleared
// if it pointed there.
func (c *Coordinator) removeLocal(email, sender string, uid uint32) bool {
	removed := false

	groups := c.groups[email]
	out := groups[:0]
	for _, g := range groups {
		if g.SenderEmail == sender {
			msgs := g.Messages[:0]
			for _, m := range g.Messages {
				if m.UID == uid {
					removed = true
					continue
				}
				msgs = append(msgs, m)
			}
			g.Messages = msgs
			g.MessageCount = len(msgs)
			if len(msgs) == 0 {
				if c.expanded[email] == sender {
					c.expanded[email] = ""
				}
				continue
			}
		}
		out = append(out, g)
	}
	c.groups[email] = out

	recent := c.recent[email]
	kept := recent[:0]
	for _, m := range recent {
		if m.UID == uid && m.Sender.Email == sender {
			removed = true
			continue
		}
		kept = append(kept, m)
	}
	c.recent[email] = kept

	return removed
}

func deleteKey(email, sender string, uid uint32) string {
	return fmt.Sprintf("%s::%s::%d", email, sender, uid)
}
