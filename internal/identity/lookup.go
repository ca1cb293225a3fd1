// Package identity реализует отложенный запрос к реестру личности для автозаполнения имени гостя.
package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/silkroad-booking/internal/api"
	"github.com/mmeshcher/silkroad-booking/internal/model"
	"github.com/mmeshcher/silkroad-booking/internal/validation"
)

// DefaultDebounce задаёт паузу после последнего изменения документа перед запросом.
const DefaultDebounce = time.Second

// Checker выполняет запрос к реестру личности.
type Checker interface {
	CheckPerson(ctx context.Context, q api.PersonQuery) (*model.Person, error)
}

// ApplyFunc получает найденное полное имя гостя.
type ApplyFunc func(name string)

// Lookup откладывает запрос до паузы во вводе и применяет только ответ на последний запрос.
type Lookup struct {
	checker  Checker
	debounce time.Duration
	apply    ApplyFunc
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	doc      model.IdentityDocument
	timer    *time.Timer
	schedule uint64
	seq      uint64
	inFlight bool
	stopped  bool
}

// New создаёт отложенный запрос. apply вызывается без удерживаемых блокировок Lookup.
func New(checker Checker, debounce time.Duration, apply ApplyFunc, logger *zap.Logger) *Lookup {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Lookup{
		checker:  checker,
		debounce: debounce,
		apply:    apply,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ready сообщает, что документа достаточно для запроса: паспорт длиннее 5 символов,
// дата рождения и гражданство заданы.
func Ready(doc model.IdentityDocument) bool {
	return validation.IsLookupPassport(doc.PassportNumber) &&
		!doc.BirthDate.IsZero() &&
		doc.CitizenshipID > 0
}

// FullName собирает имя гостя из ответа реестра: фамилия, имя, отчество через один пробел.
func FullName(p model.Person) string {
	return strings.Join(strings.Fields(p.Surname+" "+p.FirstName+" "+p.LastName), " ")
}

// Update сообщает новое состояние документа. Изменение перезапускает таймер,
// а документ без нужных полей отменяет его.
func (l *Lookup) Update(doc model.IdentityDocument) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped || doc == l.doc {
		return
	}
	l.doc = doc
	l.schedule++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}

	if !Ready(doc) {
		return
	}

	schedule := l.schedule
	l.timer = time.AfterFunc(l.debounce, func() { l.fire(schedule) })
}

// Pause отменяет запланированный запрос и запоминает текущий документ:
// последующий Update с тем же документом запрос не запускает.
func (l *Lookup) Pause() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.schedule++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// InFlight сообщает, что запрос к реестру выполняется.
func (l *Lookup) InFlight() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

// Stop отменяет таймер и выполняющийся запрос. Ответы после Stop игнорируются.
func (l *Lookup) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return
	}
	l.stopped = true
	l.inFlight = false
	if l.timer != nil {
		l.timer.Stop()
	}
	l.cancel()
}

// fire выполняет запрос, если с момента планирования документ не менялся.
func (l *Lookup) fire(schedule uint64) {
	l.mu.Lock()
	if l.stopped || schedule != l.schedule || !Ready(l.doc) {
		l.mu.Unlock()
		return
	}
	l.seq++
	seq := l.seq
	doc := l.doc
	l.inFlight = true
	l.mu.Unlock()

	person, err := l.checker.CheckPerson(l.ctx, api.PersonQuery{
		Passport: strings.TrimSpace(doc.PassportNumber),
		Birthday: doc.BirthDate,
		Citizen:  doc.CitizenshipID,
	})

	l.mu.Lock()
	if l.stopped || seq != l.seq {
		l.mu.Unlock()
		l.logger.Debug("stale identity lookup discarded", zap.Uint64("seq", seq))
		return
	}
	l.inFlight = false
	current := l.doc
	l.mu.Unlock()

	if current != doc {
		l.logger.Debug("identity lookup for outdated document discarded", zap.Uint64("seq", seq))
		return
	}
	if err != nil {
		l.logger.Info("identity lookup failed", zap.Error(err))
		return
	}
	if person == nil {
		l.logger.Debug("identity lookup found no person")
		return
	}

	name := FullName(*person)
	if name == "" {
		return
	}
	l.apply(name)
}
