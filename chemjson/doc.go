/*
 * doc.go, part of atomchain.
 *
 * Copyright 2024 Raul Mera <rmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

//Package chemjson implements serialization and unserialization of
//atomchain data types in the JSON formats understood by the Python
//materials ecosystem. Structures are encoded as pymatgen
//Structure.as_dict() dictionaries, so an external program, such as
//the model bridge that runs machine-learning potentials, can rebuild
//them with Structure.from_dict. The package also defines the request
//and result documents exchanged with such programs.
package chemjson
