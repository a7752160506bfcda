package boot

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/portside/crosshost/errors"
)

// suppressible lists the message fragments of faults that are expected
// fallout of stubbing absent capabilities. A stubbed component has no
// methods, so the guest's calls into it surface as "not a function"; a
// channel the guest never managed to register surfaces as "no handler".
var suppressible = []string{
	"no handler registered",
	"is not a function",
}

// Guard runs fn as the top-level error boundary around guest activity.
// Panics are recovered. Faults whose message indicates stubbed-capability
// fallout are logged and suppressed; anything else is returned as an
// unrecoverable guest fault.
func Guard(log *zap.Logger, fn func() error) (err error) {
	if log == nil {
		log = zap.NewNop()
	}

	defer func() {
		if r := recover(); r != nil {
			err = classify(log, fmt.Errorf("%v", r))
		}
	}()

	if ferr := fn(); ferr != nil {
		return classify(log, ferr)
	}
	return nil
}

func classify(log *zap.Logger, ferr error) error {
	msg := ferr.Error()
	for _, frag := range suppressible {
		if strings.Contains(msg, frag) {
			log.Warn("suppressed expected guest fault", zap.String("fault", msg))
			return nil
		}
	}
	log.Error("unrecoverable guest fault", zap.Error(ferr))
	return errors.GuestFault(ferr)
}
