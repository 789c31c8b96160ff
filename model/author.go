package model

type Author struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Patronymic string `json:"patronymic,omitempty"`
	Bio        string `json:"bio,omitempty"`
}

type AuthorForm struct {
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Patronymic string `json:"patronymic,omitempty"`
	Bio        string `json:"bio,omitempty"`
}

func (a *Author) FullName() string {
	name := a.Surname + " " + a.Name
	if a.Patronymic != "" {
		name += " " + a.Patronymic
	}
	return name
}
