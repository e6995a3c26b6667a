package scan

import (
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// ignoreStack holds the .gitignore files of the directories on the current
// walk path. A file's rules apply to its own directory and below.
type ignoreStack struct {
	frames []ignoreFrame
}

type ignoreFrame struct {
	dir   string // repository-relative directory, "" for the root
	rules *ignore.GitIgnore
}

// push loads dir/.gitignore if present and reports whether a frame was added.
func (s *ignoreStack) push(abs, rel string) bool {
	file := filepath.Join(abs, ".gitignore")
	if _, err := os.Stat(file); err != nil {
		return false
	}
	rules, err := ignore.CompileIgnoreFile(file)
	if err != nil {
		return false
	}
	s.frames = append(s.frames, ignoreFrame{dir: rel, rules: rules})
	return true
}

func (s *ignoreStack) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

// match reports whether rel is ignored by any active .gitignore.
func (s *ignoreStack) match(rel string, isDir bool) bool {
	for _, f := range s.frames {
		local := rel
		if f.dir != "" {
			if !strings.HasPrefix(rel, f.dir+"/") {
				continue
			}
			local = strings.TrimPrefix(rel, f.dir+"/")
		}
		if f.rules.MatchesPath(local) {
			return true
		}
		if isDir && f.rules.MatchesPath(local+"/") {
			return true
		}
	}
	return false
}
