// mentions переводит идентификаторы упомянутых пользователей в записи справочника
// и считает, кто из упомянутых добавился относительно прошлой редакции.
package mentions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pribylovaa/go-discussions/internal/models"
	"github.com/pribylovaa/go-discussions/internal/storage"
	"github.com/pribylovaa/go-discussions/pkg/log"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidID — идентификатор не является UUID.
var ErrInvalidID = errors.New("invalid user id")

// defaultParallel — сколько запросов к справочнику выполняется одновременно.
const defaultParallel = 8

// Skipped — идентификатор, который не удалось разрешить, и причина.
type Skipped struct {
	ID  string
	Err error
}

// Result — итог разрешения: успешно найденные пользователи и пропущенные идентификаторы.
// Частичный успех — нормальный исход, а не ошибка.
type Result struct {
	Resolved []models.User
	Skipped  []Skipped
}

// mentionKey — нормализованный идентификатор: разобранный UUID либо исходная строка,
// если разобрать не удалось.
type mentionKey struct {
	raw string
	id  uuid.UUID
	err error
}

// outcome — результат по одному идентификатору до свёртки в Result.
type outcome struct {
	id   string
	user *models.User
	err  error
}

// Resolver разрешает упоминания через справочник пользователей.
type Resolver struct {
	users    storage.UserDirectory
	parallel int
}

// New создаёт Resolver. parallel <= 0 — значение по умолчанию.
func New(users storage.UserDirectory, parallel int) *Resolver {
	if parallel <= 0 {
		parallel = defaultParallel
	}

	return &Resolver{users: users, parallel: parallel}
}

// Resolve разрешает каждый идентификатор независимо и конкурентно.
// Пустые идентификаторы отбрасываются. Повторы определяются по разобранному UUID,
// поэтому "<uuid>", "urn:uuid:<uuid>" и "{<uuid>}" дают одно обращение к справочнику.
// Порядок Resolved совпадает с порядком первого появления пользователя во входе.
// Ошибка по одному идентификатору логируется и попадает в Skipped, остальные не страдают.
func (r *Resolver) Resolve(ctx context.Context, ids []string) Result {
	const op = "mentions/Resolve"

	uniq := dedupe(ids)
	if len(uniq) == 0 {
		return Result{}
	}

	outcomes := make([]outcome, len(uniq))

	var g errgroup.Group
	g.SetLimit(r.parallel)

	for i, key := range uniq {
		g.Go(func() error {
			outcomes[i] = r.resolveOne(ctx, key)
			return nil
		})
	}

	_ = g.Wait()

	res := fold(outcomes)

	lg := log.From(ctx)
	for _, s := range res.Skipped {
		lg.Warn("mention_skipped",
			slog.String("op", op),
			slog.String("user_id", s.ID),
			slog.String("err", s.Err.Error()),
		)
	}

	return res
}

func (r *Resolver) resolveOne(ctx context.Context, key mentionKey) outcome {
	if key.err != nil {
		return outcome{id: key.raw, err: key.err}
	}

	u, err := r.users.User(ctx, key.id)
	if err != nil {
		return outcome{id: key.raw, err: err}
	}

	return outcome{id: key.raw, user: u}
}

// fold сворачивает поэлементные результаты в пару «разрешённые + пропущенные».
// Пользователь попадает в Resolved не больше одного раза.
func fold(outcomes []outcome) Result {
	var res Result
	seen := make(map[uuid.UUID]struct{}, len(outcomes))
	for _, o := range outcomes {
		if o.err != nil || o.user == nil {
			err := o.err
			if err == nil {
				err = storage.ErrNotFound
			}
			res.Skipped = append(res.Skipped, Skipped{ID: o.id, Err: err})
			continue
		}

		if _, dup := seen[o.user.ID]; dup {
			continue
		}
		seen[o.user.ID] = struct{}{}
		res.Resolved = append(res.Resolved, *o.user)
	}

	return res
}

// dedupe разбирает идентификаторы и убирает повторы: валидные сравниваются
// как UUID, невалидные по строке без учёта регистра.
func dedupe(ids []string) []mentionKey {
	seenID := make(map[uuid.UUID]struct{}, len(ids))
	seenRaw := make(map[string]struct{})
	out := make([]mentionKey, 0, len(ids))

	for _, raw := range ids {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			norm := strings.ToLower(raw)
			if _, ok := seenRaw[norm]; ok {
				continue
			}
			seenRaw[norm] = struct{}{}
			out = append(out, mentionKey{raw: raw, err: fmt.Errorf("%w: %q", ErrInvalidID, raw)})
			continue
		}

		if _, ok := seenID[id]; ok {
			continue
		}
		seenID[id] = struct{}{}
		out = append(out, mentionKey{raw: id.String(), id: id})
	}

	return out
}

// DiffNew возвращает элементы next, чьих идентификаторов нет в prev.
// Сравнение только по ID. Пустой prev (упоминаний ещё не было) — весь next считается новым.
// Повторы внутри next в результат попадают один раз.
func DiffNew(prev, next []models.User) []models.User {
	known := make(map[uuid.UUID]struct{}, len(prev))
	for _, u := range prev {
		known[u.ID] = struct{}{}
	}

	var out []models.User
	for _, u := range next {
		if _, ok := known[u.ID]; ok {
			continue
		}
		known[u.ID] = struct{}{}
		out = append(out, u)
	}

	return out
}
