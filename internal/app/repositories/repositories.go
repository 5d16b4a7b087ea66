package repositories

// Repositories holds all the repository instances. Every repository keeps its
// records in memory and guards them with its own lock.
type Repositories struct {
	UserRepository    *UserRepository
	CourseRepository  *CourseRepository
	SectionRepository *SectionRepository
	RosterRepository  *RosterRepository
}

// NewRepositories initializes all repositories
func NewRepositories(sectionNumberWidth int) *Repositories {
	return &Repositories{
		UserRepository:    NewUserRepository(),
		CourseRepository:  NewCourseRepository(sectionNumberWidth),
		SectionRepository: NewSectionRepository(),
		RosterRepository:  NewRosterRepository(),
	}
}

func removeString(list []string, value string) ([]string, bool) {
	for i, v := range list {
		if v == value {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func copyStrings(list []string) []string {
	return append([]string(nil), list...)
}
