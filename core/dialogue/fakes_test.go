package dialogue_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/m3rciful/directorbot/core/dialogue"
)

type sentDirect struct {
	To     dialogue.UserID
	Prompt dialogue.Prompt
	Ref    dialogue.MessageRef
}

type sentReply struct {
	Ref  dialogue.MessageRef
	Text string
}

type sentResponse struct {
	In       dialogue.Interaction
	Response dialogue.Response
}

type calls struct {
	directs  []sentDirect
	edits    []dialogue.MessageRef
	replies  []sentReply
	responds []sentResponse
	deletes  []dialogue.MessageRef
}

// fakeSender records every outbound call. Errors can be injected per operation.
type fakeSender struct {
	mu sync.Mutex
	calls
	seq       int
	failOn    map[string]error
	failAfter map[string]int
}

func newFakeSender() *fakeSender {
	return &fakeSender{failOn: map[string]error{}, failAfter: map[string]int{}}
}

func (f *fakeSender) fail(op string, err error, after int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[op] = err
	f.failAfter[op] = after
}

// errFor must be called with mu held; count is the number of successful calls so far.
func (f *fakeSender) errFor(op string, count int) error {
	if err, ok := f.failOn[op]; ok && count >= f.failAfter[op] {
		return err
	}
	return nil
}

func (f *fakeSender) SendDirect(_ context.Context, to dialogue.UserID, p dialogue.Prompt) (dialogue.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errFor("send_direct", len(f.directs)); err != nil {
		return dialogue.MessageRef{}, err
	}
	f.seq++
	ref := dialogue.MessageRef{ChannelID: "dm-" + string(to), MessageID: fmt.Sprintf("m%d", f.seq)}
	f.directs = append(f.directs, sentDirect{To: to, Prompt: p, Ref: ref})
	return ref, nil
}

func (f *fakeSender) Edit(_ context.Context, ref dialogue.MessageRef, _ dialogue.Prompt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errFor("edit", len(f.edits)); err != nil {
		return err
	}
	f.edits = append(f.edits, ref)
	return nil
}

func (f *fakeSender) Reply(_ context.Context, ref dialogue.MessageRef, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errFor("reply", len(f.replies)); err != nil {
		return err
	}
	f.replies = append(f.replies, sentReply{Ref: ref, Text: text})
	return nil
}

func (f *fakeSender) Respond(_ context.Context, in dialogue.Interaction, r dialogue.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errFor("respond", len(f.responds)); err != nil {
		return err
	}
	f.responds = append(f.responds, sentResponse{In: in, Response: r})
	return nil
}

func (f *fakeSender) Delete(_ context.Context, ref dialogue.MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errFor("delete", len(f.deletes)); err != nil {
		return err
	}
	f.deletes = append(f.deletes, ref)
	return nil
}

func (f *fakeSender) snapshot() calls {
	f.mu.Lock()
	defer f.mu.Unlock()
	return calls{
		directs:  append([]sentDirect(nil), f.directs...),
		edits:    append([]dialogue.MessageRef(nil), f.edits...),
		replies:  append([]sentReply(nil), f.replies...),
		responds: append([]sentResponse(nil), f.responds...),
		deletes:  append([]dialogue.MessageRef(nil), f.deletes...),
	}
}

func (f *fakeSender) directTo(user dialogue.UserID) (dialogue.MessageRef, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.directs {
		if d.To == user {
			return d.Ref, true
		}
	}
	return dialogue.MessageRef{}, false
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []dialogue.SessionRecord
	err     error
}

func (r *fakeRecorder) Record(_ context.Context, rec dialogue.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return r.err
}

func (r *fakeRecorder) all() []dialogue.SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dialogue.SessionRecord(nil), r.records...)
}
