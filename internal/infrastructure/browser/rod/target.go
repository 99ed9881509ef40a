package rod

import "github.com/go-rod/rod/lib/proto"

func newBlankTarget() proto.TargetCreateTarget {
	return proto.TargetCreateTarget{URL: "about:blank"}
}
