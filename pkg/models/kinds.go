package models

var AccommodationKind = Descriptor[*Accommodation]{
	Meta: Meta{
		Name:       "accommodation",
		Collection: "accommodation",
		Path:       "accommodations",
		Fields:     []string{"name", "hotelier", "category"},
	},
	New: func() *Accommodation { return &Accommodation{} },
}

var CountryKind = Descriptor[*Country]{
	Meta: Meta{
		Name:       "country",
		Collection: "country",
		Path:       "countries",
		Fields:     []string{"countryName"},
	},
	New: func() *Country { return &Country{} },
}

var DepartmentKind = Descriptor[*Department]{
	Meta: Meta{
		Name:       "department",
		Collection: "department",
		Path:       "departments",
		Fields:     []string{"departmentName"},
	},
	New: func() *Department { return &Department{} },
}

var EmployeeKind = Descriptor[*Employee]{
	Meta: Meta{
		Name:       "employee",
		Collection: "employee",
		Path:       "employees",
		Fields:     []string{"firstName", "lastName", "email", "phoneNumber", "hireDate", "salary", "commissionPct"},
		Paginated:  true,
	},
	New: func() *Employee { return &Employee{} },
}

var JobKind = Descriptor[*Job]{
	Meta: Meta{
		Name:       "job",
		Collection: "job",
		Path:       "jobs",
		Fields:     []string{"jobTitle", "minSalary", "maxSalary"},
		Paginated:  true,
	},
	New: func() *Job { return &Job{} },
}

var JobHistoryKind = Descriptor[*JobHistory]{
	Meta: Meta{
		Name:       "jobHistory",
		Collection: "job_history",
		Path:       "job-histories",
		Fields:     []string{"startDate", "endDate", "language"},
		Paginated:  true,
	},
	New: func() *JobHistory { return &JobHistory{} },
}

var LocationKind = Descriptor[*Location]{
	Meta: Meta{
		Name:       "location",
		Collection: "location",
		Path:       "locations",
		Fields:     []string{"streetAddress", "postalCode", "city", "stateProvince"},
	},
	New: func() *Location { return &Location{} },
}

var RegionKind = Descriptor[*Region]{
	Meta: Meta{
		Name:       "region",
		Collection: "region",
		Path:       "regions",
		Fields:     []string{"regionName"},
	},
	New: func() *Region { return &Region{} },
}

var TaskKind = Descriptor[*Task]{
	Meta: Meta{
		Name:       "task",
		Collection: "task",
		Path:       "tasks",
		Fields:     []string{"title", "description"},
	},
	New: func() *Task { return &Task{} },
}

var UserKind = Descriptor[*User]{
	Meta: Meta{
		Name:       "user",
		Collection: "jhi_user",
		Path:       "users",
		Fields:     []string{"login", "firstName", "lastName", "email", "activated", "langKey", "createdDate", "lastModifiedDate"},
	},
	New: func() *User { return &User{} },
}

// Kinds lists every entity kind in a stable order.
func Kinds() []Meta {
	return []Meta{
		AccommodationKind.Meta,
		CountryKind.Meta,
		DepartmentKind.Meta,
		EmployeeKind.Meta,
		JobKind.Meta,
		JobHistoryKind.Meta,
		LocationKind.Meta,
		RegionKind.Meta,
		TaskKind.Meta,
		UserKind.Meta,
	}
}

// KindByPath finds a kind by its REST path or collection name.
func KindByPath(name string) (Meta, bool) {
	for _, k := range Kinds() {
		if k.Path == name || k.Collection == name || k.Name == name {
			return k, true
		}
	}
	return Meta{}, false
}
