package logger

import (
	"github.com/denismitr/docshift/event"
)

type observer struct {
	lg Logger
}

// Observer prints run progress through the logger
func Observer(lg Logger) event.Observer {
	return &observer{lg: lg}
}

func (o *observer) Notify(name string, payload interface{}) {
	switch p := payload.(type) {
	case event.ResolvedPayload:
		if p.Count == 0 {
			o.lg.Successf("nothing to migrate %s", p.Direction)
			return
		}
		o.lg.Debugf("%d migration(s) resolved to run %s", p.Count, p.Direction)
	case event.UnitPayload:
		o.lg.Successf("%s %s [%s]", verb(name), p.Unit.Name, p.Unit.Filename)
	case event.LedgerPayload:
		o.lg.Debugf("ledger %s updated with %d entries after %s", p.Table, p.Entries, p.Direction)
	default:
		o.lg.Debugf("%s", name)
	}
}

func verb(name string) string {
	if name == event.RolledBack {
		return "rolled back"
	}

	return "migrated"
}
