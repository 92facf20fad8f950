package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/deppfellow/bookshelf/internal/model/book"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	fieldTitle         = "title"
	fieldAuthor        = "author"
	fieldPublishedYear = "published_year"
)

// updateBookScript applies a partial update only if the hash exists and
// returns the resulting hash, keeping the read-modify-write atomic.
var updateBookScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
if #ARGV > 0 then
	redis.call('HSET', KEYS[1], unpack(ARGV))
end
return redis.call('HGETALL', KEYS[1])
`)

// RedisBookRepository stores books in Redis.
//
// Layout (all keys under prefix):
//
//	books:seq    INCR counter issuing ids
//	books:<id>   hash {title, author, published_year}
//	books:index  sorted set of ids, score = id
type RedisBookRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisBookRepository returns a repository namespacing its keys with prefix.
func NewRedisBookRepository(client redis.UniversalClient, prefix string) *RedisBookRepository {
	return &RedisBookRepository{client: client, prefix: prefix}
}

func (r *RedisBookRepository) seqKey() string {
	return r.prefix + "books:seq"
}

func (r *RedisBookRepository) indexKey() string {
	return r.prefix + "books:index"
}

func (r *RedisBookRepository) bookKey(id int64) string {
	return r.prefix + "books:" + strconv.FormatInt(id, 10)
}

func (r *RedisBookRepository) ListBooks(ctx context.Context) ([]book.Book, error) {
	ids, err := r.client.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read book index")
	}

	books := make([]book.Book, 0, len(ids))
	if len(ids) == 0 {
		return books, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	pipe := r.client.Pipeline()
	for i, rawID := range ids {
		cmds[i] = pipe.HGetAll(ctx, r.prefix+"books:"+rawID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to read books")
	}

	for i, cmd := range cmds {
		fields := cmd.Val()
		// Deleted between ZRANGE and HGETALL.
		if len(fields) == 0 {
			continue
		}

		id, err := strconv.ParseInt(ids[i], 10, 64)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "invalid book id %q in index", ids[i])
		}

		b, err := bookFromHash(id, fields)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}

	return books, nil
}

func (r *RedisBookRepository) GetBookByID(ctx context.Context, id int64) (*book.Book, error) {
	fields, err := r.client.HGetAll(ctx, r.bookKey(id)).Result()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get book by id=%d", id)
	}
	if len(fields) == 0 {
		return nil, ErrBookNotFound
	}

	b, err := bookFromHash(id, fields)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func (r *RedisBookRepository) CreateBook(ctx context.Context, payload *book.CreateBookPayload) (*book.Book, error) {
	id, err := r.client.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to allocate book id")
	}

	b := book.Book{
		ID:            id,
		Title:         payload.Title,
		Author:        payload.Author,
		PublishedYear: *payload.PublishedYear,
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.bookKey(id), map[string]any{
			fieldTitle:         b.Title,
			fieldAuthor:        b.Author,
			fieldPublishedYear: b.PublishedYear,
		})
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{Score: float64(id), Member: strconv.FormatInt(id, 10)})
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to store book id=%d", id)
	}

	return &b, nil
}

func (r *RedisBookRepository) UpdateBook(ctx context.Context, payload *book.UpdateBookPayload) (*book.Book, error) {
	var args []any
	if payload.Title != nil {
		args = append(args, fieldTitle, *payload.Title)
	}
	if payload.Author != nil {
		args = append(args, fieldAuthor, *payload.Author)
	}
	if payload.PublishedYear != nil {
		args = append(args, fieldPublishedYear, *payload.PublishedYear)
	}

	reply, err := updateBookScript.Run(ctx, r.client, []string{r.bookKey(payload.ID)}, args...).Slice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrBookNotFound
		}
		return nil, pkgerrors.Wrapf(err, "failed to update book id=%d", payload.ID)
	}

	fields := make(map[string]string, len(reply)/2)
	for i := 0; i+1 < len(reply); i += 2 {
		key, _ := reply[i].(string)
		value, _ := reply[i+1].(string)
		fields[key] = value
	}

	b, err := bookFromHash(payload.ID, fields)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func (r *RedisBookRepository) DeleteBook(ctx context.Context, id int64) error {
	var deleted *redis.IntCmd

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, r.bookKey(id))
		pipe.ZRem(ctx, r.indexKey(), strconv.FormatInt(id, 10))
		return nil
	})
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to delete book id=%d", id)
	}

	if deleted.Val() == 0 {
		return ErrBookNotFound
	}

	return nil
}

func bookFromHash(id int64, fields map[string]string) (book.Book, error) {
	year, err := strconv.Atoi(fields[fieldPublishedYear])
	if err != nil {
		return book.Book{}, pkgerrors.Wrapf(err, "invalid published_year stored for book id=%d", id)
	}

	return book.Book{
		ID:            id,
		Title:         fields[fieldTitle],
		Author:        fields[fieldAuthor],
		PublishedYear: year,
	}, nil
}
