package cache

import (
	"iter"

	"clientfiles/internal/model"
)

// Path addresses a node in the tree. Unused trailing ids are empty.
type Path struct {
	FileID       string
	ProjectID    string
	FolderID     string
	FolderFileID string
}

func (s *State) File(id string) *model.ClientFile {
	for _, f := range s.Files {
		if f.ID == id {
			return f
		}
	}
	return nil
}

func (s *State) Project(fID, pID string) *model.Project {
	f := s.File(fID)
	if f == nil {
		return nil
	}
	for _, p := range f.Projects {
		if p.ID == pID {
			return p
		}
	}
	return nil
}

func (s *State) Folder(fID, pID, dID string) *model.Folder {
	p := s.Project(fID, pID)
	if p == nil {
		return nil
	}
	for _, d := range p.Folders {
		if d.ID == dID {
			return d
		}
	}
	return nil
}

func (s *State) Template(id string) *model.Template {
	for _, t := range s.Templates {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Projects yields every project with its owning file id.
func (s *State) Projects() iter.Seq2[string, *model.Project] {
	return func(yield func(string, *model.Project) bool) {
		for _, f := range s.Files {
			for _, p := range f.Projects {
				if !yield(f.ID, p) {
					return
				}
			}
		}
	}
}

// Folders yields every folder with its path.
func (s *State) Folders() iter.Seq2[Path, *model.Folder] {
	return func(yield func(Path, *model.Folder) bool) {
		for fID, p := range s.Projects() {
			for _, d := range p.Folders {
				if !yield(Path{FileID: fID, ProjectID: p.ID, FolderID: d.ID}, d) {
					return
				}
			}
		}
	}
}

// FolderFiles yields every folder file with its full path.
func (s *State) FolderFiles() iter.Seq2[Path, *model.FolderFile] {
	return func(yield func(Path, *model.FolderFile) bool) {
		for path, d := range s.Folders() {
			for _, ff := range d.Files {
				path.FolderFileID = ff.ID
				if !yield(path, ff) {
					return
				}
			}
		}
	}
}

// LocateProject finds the file owning projectID.
func (s *State) LocateProject(pID string) (Path, bool) {
	for fID, p := range s.Projects() {
		if p.ID == pID {
			return Path{FileID: fID, ProjectID: pID}, true
		}
	}
	return Path{}, false
}

// LocateFolder finds the file and project owning folderID.
func (s *State) LocateFolder(dID string) (Path, bool) {
	for path, d := range s.Folders() {
		if d.ID == dID {
			return path, true
		}
	}
	return Path{}, false
}

// LocateStoragePath finds the folder file stored at path.
func (s *State) LocateStoragePath(storagePath string) (Path, bool) {
	if storagePath == "" {
		return Path{}, false
	}
	for path, ff := range s.FolderFiles() {
		if ff.StoragePath == storagePath {
			return path, true
		}
	}
	return Path{}, false
}

// HasReference reports whether a file other than exceptID uses reference.
func (s *State) HasReference(reference, exceptID string) bool {
	if reference == "" {
		return false
	}
	for _, f := range s.Files {
		if f.ID != exceptID && f.Reference == reference {
			return true
		}
	}
	return false
}
