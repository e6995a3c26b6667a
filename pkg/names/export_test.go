package names

func (r *Resolver) withoutTable(ecosystem string) *Resolver {
	delete(r.tables, ecosystem)
	return r
}
