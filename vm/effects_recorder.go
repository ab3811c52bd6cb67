package vm

import "suireplay/types"

// effectsRecorder accumulates created/mutated/deleted/wrapped/unwrapped
// object ids and events while an Executor runs a transaction's commands,
// to be assembled into TransactionEffects on success (spec.md §4.5 step
// 4).
type effectsRecorder struct {
	created   []types.ObjectID
	mutated   []types.ObjectID
	deleted   []types.ObjectID
	wrapped   []types.ObjectID
	unwrapped []types.ObjectID
	events    []types.Event
}

func newEffectsRecorder() *effectsRecorder { return &effectsRecorder{} }

func (r *effectsRecorder) recordCreated(id types.ObjectID)   { r.created = append(r.created, id) }
func (r *effectsRecorder) recordMutated(id types.ObjectID)   { r.mutated = append(r.mutated, id) }
func (r *effectsRecorder) recordDeleted(id types.ObjectID)   { r.deleted = append(r.deleted, id) }
func (r *effectsRecorder) recordWrapped(id types.ObjectID)   { r.wrapped = append(r.wrapped, id) }
func (r *effectsRecorder) recordUnwrapped(id types.ObjectID) { r.unwrapped = append(r.unwrapped, id) }
func (r *effectsRecorder) recordEvent(ev types.Event)        { r.events = append(r.events, ev) }

func (r *effectsRecorder) Build() types.TransactionEffects {
	return types.TransactionEffects{
		Created:   refsOf(r.created),
		Mutated:   refsOf(r.mutated),
		Deleted:   refsOf(r.deleted),
		Wrapped:   refsOf(r.wrapped),
		Unwrapped: refsOf(r.unwrapped),
		Events:    r.events,
	}
}

func refsOf(ids []types.ObjectID) []types.ObjectRef {
	out := make([]types.ObjectRef, len(ids))
	for i, id := range ids {
		out[i] = types.ObjectRef{ID: id}
	}
	return out
}
