package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fleveque/poke-finder/internal/model"
)

// FileSystem stores processed sprite PNGs at {baseDir}/{pokemonID}/{size}.png.
type FileSystem struct {
	baseDir string
}

// NewFileSystem creates a new FileSystem storage, ensuring the base directory exists.
func NewFileSystem(baseDir string) (*FileSystem, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating sprite directory: %w", err)
	}
	return &FileSystem{baseDir: baseDir}, nil
}

// SpritePath returns the filesystem path for a sprite at a given size.
func (fs *FileSystem) SpritePath(pokemonID int, size model.SpriteSize) string {
	return filepath.Join(fs.PokemonDir(pokemonID), string(size)+".png")
}

// PokemonDir returns the directory holding every size of one sprite.
func (fs *FileSystem) PokemonDir(pokemonID int) string {
	return filepath.Join(fs.baseDir, strconv.Itoa(pokemonID))
}

// Read returns the PNG bytes of a stored sprite.
func (fs *FileSystem) Read(pokemonID int, size model.SpriteSize) ([]byte, error) {
	data, err := os.ReadFile(fs.SpritePath(pokemonID, size))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("sprite file not found: %d/%s", pokemonID, size)
		}
		return nil, fmt.Errorf("reading sprite file: %w", err)
	}
	return data, nil
}

// Write saves a sprite PNG to disk, creating the Pokémon's directory if needed.
func (fs *FileSystem) Write(pokemonID int, size model.SpriteSize, data []byte) error {
	if err := os.MkdirAll(fs.PokemonDir(pokemonID), 0755); err != nil {
		return fmt.Errorf("creating sprite directory: %w", err)
	}
	if err := os.WriteFile(fs.SpritePath(pokemonID, size), data, 0644); err != nil {
		return fmt.Errorf("writing sprite file: %w", err)
	}
	return nil
}

// Exists checks if a sprite file exists on disk.
func (fs *FileSystem) Exists(pokemonID int, size model.SpriteSize) bool {
	_, err := os.Stat(fs.SpritePath(pokemonID, size))
	return err == nil
}

// DeletePokemon removes every stored size of one sprite.
func (fs *FileSystem) DeletePokemon(pokemonID int) error {
	return os.RemoveAll(fs.PokemonDir(pokemonID))
}
