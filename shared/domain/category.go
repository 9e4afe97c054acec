package domain

// to iterate thru layers: handler -> service -> storage
type CategoryCreationData struct {
	Name  CategoryName
	Added Signature
}

type Category struct {
	Id      CategoryId
	Name    CategoryName
	SortKey SortKey
	Added   Signature
	Edited  *Signature
}

type CategoryWithForums struct {
	Category
	Forums []Forum
}
