package darkroom

// Preview-frame coalescing. Interactive hosts adjust sliders far faster
// than frames render; queuing every intermediate state would only add
// latency. Request therefore keeps exactly one pending state, the latest,
// and RenderPending draws whatever is newest when the host's frame loop
// gets around to it.

// Request records state as the next preview frame, replacing any state
// requested earlier that has not rendered yet. The state is snapshotted, so
// the caller may keep mutating its copy (including the curve slices) after
// Request returns.
//
// Request never blocks on the GPU and is safe to call from any goroutine,
// including while a render or export is in flight.
func (r *Renderer) Request(state EditState) {
	s := state.Clone()
	r.pending.Store(&s)
}

// RenderPending renders the most recently requested state into target and
// clears it. It reports whether a frame was drawn; with nothing pending it
// returns false without touching the GPU.
//
// A render or export already holding the GPU finishes first; RenderPending
// then draws the newest state, not any state skipped in between.
func (r *Renderer) RenderPending(target Target) (bool, error) {
	state := r.pending.Swap(nil)
	if state == nil {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.renderLocked(state, target); err != nil {
		return false, err
	}
	return true, nil
}

// CancelPending drops any requested-but-unrendered state.
func (r *Renderer) CancelPending() {
	r.pending.Store(nil)
}
