package manifest

import (
	"bytes"
	"encoding/binary"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const maxDetectDepth = 3

type elfArch int

const (
	archNone elfArch = iota
	archOther
	arch386
	archAmd64
)

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// Bundled runtimes ship their own executables that must never be picked as
// the game binary.
var excludedSegments = map[string]struct{}{
	"java": {},
	"jre":  {},
	"lib":  {},
}

type candidate struct {
	path  string
	depth int
	arch  elfArch
}

// DetectExecutable finds the most plausible launch binary under gameDir.
// The search widens gradually: shallow paths before deep ones, x86-64
// binaries before 32-bit before anything else, and name similarity to the
// game folder breaks ties. Returns "" when nothing qualifies.
func DetectExecutable(gameDir string) (string, error) {
	root := realRoot(gameDir)

	candidates, err := collectCandidates(root)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", nil
	}

	folderBase := filepath.Base(root)
	for depth := 1; depth <= maxDetectDepth; depth++ {
		for _, arch := range []elfArch{archAmd64, arch386, archNone} {
			if best := bestMatch(folderBase, candidates, depth, arch); best != "" {
				return best, nil
			}
		}
	}
	return "", nil
}

func collectCandidates(root string) ([]candidate, error) {
	var out []candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		depth := len(strings.Split(filepath.ToSlash(rel), "/"))

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, excluded := excludedSegments[d.Name()]; excluded {
				return filepath.SkipDir
			}
			if depth >= maxDetectDepth {
				return filepath.SkipDir
			}
			return nil
		}

		info, ierr := d.Info()
		if ierr != nil {
			return nil // went away mid-walk
		}
		if info.Mode().Perm()&0o111 == 0 {
			return nil
		}

		arch, ok := sniffELF(path)
		if !ok {
			return nil
		}
		out = append(out, candidate{path: path, depth: depth, arch: arch})
		return nil
	})
	return out, err
}

// bestMatch returns the candidate within depth whose base name is most
// similar to the game folder name. wantArch of archNone accepts any ELF.
func bestMatch(folderBase string, candidates []candidate, depth int, wantArch elfArch) string {
	best := ""
	bestScore := -1.0
	for _, c := range candidates {
		if c.depth > depth {
			continue
		}
		if wantArch != archNone && c.arch != wantArch {
			continue
		}
		base := strings.TrimSuffix(filepath.Base(c.path), filepath.Ext(c.path))
		score := similarity(folderBase, base)
		if score > bestScore {
			bestScore = score
			best = c.path
		}
	}
	return best
}

func similarity(a, b string) float64 {
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// sniffELF reports whether path is an ELF binary and which machine it
// targets. e_machine sits at offset 18, little-endian in practice for the
// x86 families this tool cares about.
func sniffELF(path string) (elfArch, bool) {
	f, err := os.Open(path)
	if err != nil {
		return archNone, false
	}
	defer f.Close()

	header := make([]byte, 20)
	if _, err := io.ReadFull(f, header); err != nil {
		return archNone, false
	}
	if !bytes.Equal(header[:4], elfMagic) {
		return archNone, false
	}

	switch binary.LittleEndian.Uint16(header[18:20]) {
	case 62: // EM_X86_64
		return archAmd64, true
	case 3: // EM_386
		return arch386, true
	default:
		return archOther, true
	}
}
