package scheduler

import "github.com/google/wire"

var Provider = wire.NewSet(
	New,
	NewRegistry,
	NewRunner,
	NewMemoryEmitter,
	wire.Bind(new(IEmitter), new(*MemoryEmitter)),
)

type IEmitter interface {
	Emit(ev Event)
}
