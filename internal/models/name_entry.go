package models

// NameEntry 名称缓存值，HasName=false 表示已查询过但没有名称
type NameEntry struct {
	Name    string `msgpack:"n"`
	HasName bool   `msgpack:"h"`
}

func NoName() NameEntry {
	return NameEntry{}
}

func Named(name string) NameEntry {
	if name == "" {
		return NoName()
	}
	return NameEntry{Name: name, HasName: true}
}

// Ptr 有名称时返回指针，否则 nil
func (e NameEntry) Ptr() *string {
	if !e.HasName {
		return nil
	}
	name := e.Name
	return &name
}
