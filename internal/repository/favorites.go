package repository

import (
	"context"
	"errors"
	"strings"
)

var ErrFavoriteInvalid = errors.New("favorite name and query must not be empty")

type FavoritesService struct {
	repo *Repo
}

func NewFavoritesService(repo *Repo) *FavoritesService {
	return &FavoritesService{repo: repo}
}

func (f *FavoritesService) Create(ctx context.Context, guild, author, name, query string) error {
	name = strings.TrimSpace(name)
	query = strings.TrimSpace(query)
	if name == "" || query == "" {
		return ErrFavoriteInvalid
	}
	return f.repo.AddFavorite(ctx, &Favorite{
		GuildID: guild, Author: author, Name: name, Query: query,
	})
}

// Remove deletes a favorite. Members other than its author need force
// (the handlers pass it for users with Manage Server).
func (f *FavoritesService) Remove(ctx context.Context, guild, author, name string, force bool) error {
	n, err := f.repo.RemoveFavorite(ctx, guild, strings.TrimSpace(name), author, force)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}

func (f *FavoritesService) Use(ctx context.Context, guild, name string) (*Favorite, error) {
	return f.repo.FindFavorite(ctx, guild, strings.TrimSpace(name))
}

func (f *FavoritesService) List(ctx context.Context, guild string) ([]Favorite, error) {
	return f.repo.ListFavorites(ctx, guild)
}

func (f *FavoritesService) Suggest(ctx context.Context, guild, prefix string) ([]string, error) {
	return f.repo.SearchFavorites(ctx, guild, strings.TrimSpace(prefix), 25)
}
