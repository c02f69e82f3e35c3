package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/aitomarabdeljalil/42-Matcha/discovery"
)

// DataLoaderContextKey is the key used to store dataloaders in context
type DataLoaderContextKey string

const dataLoaderKey DataLoaderContextKey = "dataloader"

const loaderWait = 16 * time.Millisecond

type userBatcher interface {
	FindByIDs(ctx context.Context, ids []int) ([]*discovery.User, error)
}

// DataLoaders holds the per-request loaders.
type DataLoaders struct {
	UserLoader *dataloader.Loader[int, *discovery.User]
}

func NewDataLoaders(store userBatcher) *DataLoaders {
	return &DataLoaders{
		UserLoader: dataloader.NewBatchedLoader(userBatchFn(store), dataloader.WithWait[int, *discovery.User](loaderWait)),
	}
}

// GetDataLoadersFromContext retrieves dataloaders from context
func GetDataLoadersFromContext(ctx context.Context) *DataLoaders {
	if dl, ok := ctx.Value(dataLoaderKey).(*DataLoaders); ok {
		return dl
	}
	return nil
}

// WithDataLoaders adds dataloaders to context
func WithDataLoaders(ctx context.Context, dl *DataLoaders) context.Context {
	return context.WithValue(ctx, dataLoaderKey, dl)
}

// DataLoaderMiddleware gives every request fresh loaders so cached users
// never outlive the request.
func DataLoaderMiddleware(store userBatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithDataLoaders(r.Context(), NewDataLoaders(store))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userBatchFn loads all keys with one query. Results follow key order;
// missing users get errUserNotFound.
func userBatchFn(store userBatcher) dataloader.BatchFunc[int, *discovery.User] {
	return func(ctx context.Context, keys []int) []*dataloader.Result[*discovery.User] {
		results := make([]*dataloader.Result[*discovery.User], len(keys))
		if len(keys) == 0 {
			return results
		}

		users, err := store.FindByIDs(ctx, keys)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[*discovery.User]{Error: err}
			}
			return results
		}

		byID := make(map[int]*discovery.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}
		for i, key := range keys {
			if u, ok := byID[key]; ok {
				results[i] = &dataloader.Result[*discovery.User]{Data: u}
			} else {
				results[i] = &dataloader.Result[*discovery.User]{Error: errUserNotFound}
			}
		}
		return results
	}
}

// loadUser resolves one user through the request loader, or straight from
// the store when no loader is attached.
func loadUser(ctx context.Context, store userBatcher, id int) (*discovery.User, error) {
	if dl := GetDataLoadersFromContext(ctx); dl != nil {
		return dl.UserLoader.Load(ctx, id)()
	}
	users, err := store.FindByIDs(ctx, []int{id})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errUserNotFound
	}
	return users[0], nil
}

// loadUsers resolves ids in order, dropping the ones that no longer exist.
func loadUsers(ctx context.Context, store userBatcher, ids []int) ([]*discovery.User, error) {
	out := make([]*discovery.User, 0, len(ids))
	dl := GetDataLoadersFromContext(ctx)
	if dl == nil {
		users, err := store.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[int]*discovery.User, len(users))
		for _, u := range users {
			byID[u.ID] = u
		}
		for _, id := range ids {
			if u, ok := byID[id]; ok {
				out = append(out, u)
			}
		}
		return out, nil
	}

	users, errs := dl.UserLoader.LoadMany(ctx, ids)()
	for i, u := range users {
		if i < len(errs) && errs[i] != nil {
			if errors.Is(errs[i], errUserNotFound) {
				continue
			}
			return nil, errs[i]
		}
		if u != nil {
			out = append(out, u)
		}
	}
	return out, nil
}
