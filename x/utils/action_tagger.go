package utils

import weave "github.com/iov-one/weave-splitter"

// ActionKey is the tag key under which ActionTagger stores the message path.
const ActionKey = "action"

// ActionTagger adds an "action" tag with the path of the delivered message
// to every successful result. Clients filter executed operations by it.
type ActionTagger struct{}

var _ weave.Decorator = ActionTagger{}

func NewActionTagger() ActionTagger {
	return ActionTagger{}
}

func (ActionTagger) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Checker) (*weave.CheckResult, error) {
	return next.Check(ctx, db, tx)
}

func (ActionTagger) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx, next weave.Deliverer) (*weave.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, err
	}
	res, err := next.Deliver(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if msg != nil {
		res.Tags = append(res.Tags, weave.Tag{Key: ActionKey, Value: msg.Path()})
	}
	return res, nil
}
